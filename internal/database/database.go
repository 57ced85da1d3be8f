package database

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

// InitDB abre la base de datos y crea el esquema si no existe. Si DATABASE_URL
// está definida se usa Postgres; si no, un archivo sqlite local para
// desarrollo. Todas las consultas usan marcadores $N, válidos en ambos.
func InitDB() error {
	var err error

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		DB, err = sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		if err := DB.Ping(); err != nil {
			return err
		}
		log.Println("Conectado a Postgres")
	} else {
		// Crear el directorio database si no existe
		if err := os.MkdirAll("database", 0755); err != nil {
			return err
		}
		DB, err = sql.Open("sqlite3", filepath.Join("database", "copytrade.db"))
		if err != nil {
			return err
		}
		log.Println("Usando sqlite local (DATABASE_URL no definida)")
	}

	if err := CreateSchema(DB); err != nil {
		return err
	}

	// Ejecutar migraciones para actualizar el esquema
	return RunMigrations()
}

// CreateSchema crea todas las tablas del núcleo. Se expone para que las
// pruebas puedan levantar el mismo esquema sobre una base en memoria.
func CreateSchema(db *sql.DB) error {
	// Tabla de usuarios: account_balance y total_investment son los dos
	// campos escalares que administran los ledgers.
	createUsersTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		kyc_verified BOOLEAN NOT NULL DEFAULT FALSE,
		account_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_investment DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(createUsersTableSQL); err != nil {
		return err
	}

	// Tabla de solicitudes de depósito y retiro
	createTransactionsTableSQL := `
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		crypto_name TEXT,
		ticker TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		note TEXT,
		price_at_approval DOUBLE PRECISION NOT NULL DEFAULT 0,
		usd_value_at_approval DOUBLE PRECISION NOT NULL DEFAULT 0,
		approved_by TEXT,
		approved_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(createTransactionsTableSQL); err != nil {
		return err
	}

	createTransactionsIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_transactions_user_status
	ON transactions(user_id, status);`

	if _, err := db.Exec(createTransactionsIndexSQL); err != nil {
		return err
	}

	// Tabla de tenencias: una fila por usuario×activo
	createHoldingsTableSQL := `
	CREATE TABLE IF NOT EXISTS holdings (
		user_id TEXT NOT NULL,
		ticker TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		avg_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_invested DOUBLE PRECISION NOT NULL DEFAULT 0,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, ticker)
	);`

	if _, err := db.Exec(createHoldingsTableSQL); err != nil {
		return err
	}

	// Catálogo de planes de copytrade
	createPlansTableSQL := `
	CREATE TABLE IF NOT EXISTS copytrade_plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		trader TEXT,
		description TEXT,
		min_investment DOUBLE PRECISION NOT NULL,
		max_investment DOUBLE PRECISION NOT NULL DEFAULT 0,
		roi_min DOUBLE PRECISION NOT NULL DEFAULT 0,
		roi_max DOUBLE PRECISION NOT NULL DEFAULT 0,
		risk TEXT NOT NULL,
		duration_days INTEGER NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(createPlansTableSQL); err != nil {
		return err
	}

	// Compras de copytrade: foto del plan al momento de la compra
	createPurchasesTableSQL := `
	CREATE TABLE IF NOT EXISTS copytrade_purchases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		plan_name TEXT,
		min_investment DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_investment DOUBLE PRECISION NOT NULL DEFAULT 0,
		risk TEXT NOT NULL,
		roi_min DOUBLE PRECISION NOT NULL DEFAULT 0,
		roi_max DOUBLE PRECISION NOT NULL DEFAULT 0,
		duration_days INTEGER NOT NULL,
		invested_usd DOUBLE PRECISION NOT NULL,
		current_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		profit_loss DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_profit BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'pending',
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(createPurchasesTableSQL); err != nil {
		return err
	}

	createPurchasesIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_copytrade_purchases_status_end
	ON copytrade_purchases(status, end_date);`

	_, err := db.Exec(createPurchasesIndexSQL)
	return err
}
