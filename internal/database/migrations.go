package database

import (
	"database/sql"
	"log"
)

// RunMigrations ejecuta las migraciones sobre la base global.
func RunMigrations() error {
	log.Println("Ejecutando migraciones de la base de datos...")
	return MigrateDB(DB)
}

// MigrateDB actualiza el esquema de instalaciones anteriores.
func MigrateDB(db *sql.DB) error {
	// Migración para añadir los campos de balance a la tabla users. La columna
	// account_balance se agrega sin default: los registros anteriores quedan en
	// NULL y se inicializan de forma perezosa desde total_investment la primera
	// vez que se los lee.
	addBalanceColumnsSQL := []string{
		`ALTER TABLE users ADD COLUMN account_balance DOUBLE PRECISION;`,
		`ALTER TABLE users ADD COLUMN total_investment DOUBLE PRECISION NOT NULL DEFAULT 0;`,
		`ALTER TABLE transactions ADD COLUMN approved_by TEXT;`,
	}

	for _, migration := range addBalanceColumnsSQL {
		if _, err := db.Exec(migration); err != nil {
			// No retornamos error porque el motor puede quejarse si la
			// columna ya existe y queremos que la migración continúe
			log.Printf("Migración omitida: %v", err)
		}
	}

	return nil
}
