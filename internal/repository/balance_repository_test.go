package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/database"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFundsActualizaBalanceYPortafolio(t *testing.T) {
	db := openTestDB(t)
	portfolio := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{"BTC": 2000}})
	repo := NewBalanceRepository(db, portfolio)
	insertTestUser(t, db, "u1")

	// Depósito de 2 unidades a 2000 USD cada una
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.AddFunds(tx, "u1", "BTC", 2, 4000))
	require.NoError(t, tx.Commit())

	balance, err := repo.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 4000, balance, 1e-8)

	var totalInvestment float64
	require.NoError(t, db.QueryRow(`SELECT total_investment FROM users WHERE id = 'u1'`).Scan(&totalInvestment))
	assert.InDelta(t, 4000, totalInvestment, 1e-8)

	holding, err := portfolio.GetHolding("u1", "BTC")
	require.NoError(t, err)
	assert.InDelta(t, 2, holding.Amount, 1e-8)
	assert.InDelta(t, 4000, holding.TotalInvested, 1e-8)
}

func TestDeductFundsDebitaPortafolioPrimero(t *testing.T) {
	db := openTestDB(t)
	portfolio := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{"BTC": 2000}})
	repo := NewBalanceRepository(db, portfolio)
	insertTestUser(t, db, "u1")

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.AddFunds(tx, "u1", "BTC", 2, 4000))
	require.NoError(t, tx.Commit())

	// El balance alcanza pero la tenencia no: debe fallar por el activo y no
	// tocar el balance
	tx, err = db.Begin()
	require.NoError(t, err)
	err = repo.DeductFunds(tx, "u1", "BTC", 3, 3000)
	var tokenErr *models.InsufficientTokenBalanceError
	require.ErrorAs(t, err, &tokenErr)
	tx.Rollback()

	balance, err := repo.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 4000, balance, 1e-8)
}

func TestDeductFundsSinBalance(t *testing.T) {
	db := openTestDB(t)
	portfolio := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{"BTC": 2000}})
	repo := NewBalanceRepository(db, portfolio)
	insertTestUser(t, db, "u1")

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = repo.DeductFunds(tx, "u1", "BTC", 1, 2000)
	var fundsErr *models.InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.InDelta(t, 2000, fundsErr.Required, 1e-8)
	assert.InDelta(t, 0, fundsErr.Available, 1e-8)
	assert.InDelta(t, 2000, fundsErr.Deficit, 1e-8)
}

func TestDeductFundsRetiroCompleto(t *testing.T) {
	db := openTestDB(t)
	portfolio := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{"ETH": 1000}})
	repo := NewBalanceRepository(db, portfolio)
	insertTestUser(t, db, "u1")

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.AddFunds(tx, "u1", "ETH", 5, 5000))
	require.NoError(t, tx.Commit())

	tx, err = db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.DeductFunds(tx, "u1", "ETH", 2, 2000))
	require.NoError(t, tx.Commit())

	balance, err := repo.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 3000, balance, 1e-8)

	holding, err := portfolio.GetHolding("u1", "ETH")
	require.NoError(t, err)
	assert.InDelta(t, 3, holding.Amount, 1e-8)
}

func TestGetBalanceInicializacionPerezosa(t *testing.T) {
	// Esquema anterior a la columna de balance: el registro existe antes de la
	// migración, que agrega account_balance sin default y lo deja en NULL
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			kyc_verified BOOLEAN NOT NULL DEFAULT FALSE,
			total_investment DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	require.NoError(t, err)

	_, err = db.Exec(
		`INSERT INTO users (id, email, password, name, total_investment)
		 VALUES ('viejo', 'viejo@test.com', 'hash', 'Viejo', 1234.5)`)
	require.NoError(t, err)

	require.NoError(t, database.MigrateDB(db))

	portfolio := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{}})
	repo := NewBalanceRepository(db, portfolio)

	balance, err := repo.GetBalance("viejo")
	require.NoError(t, err)
	assert.InDelta(t, 1234.5, balance, 1e-8)

	// La inicialización quedó persistida
	var persisted float64
	require.NoError(t, db.QueryRow(`SELECT account_balance FROM users WHERE id = 'viejo'`).Scan(&persisted))
	assert.InDelta(t, 1234.5, persisted, 1e-8)
}

func TestGetBalanceUsuarioInexistente(t *testing.T) {
	db := openTestDB(t)
	portfolio := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{}})
	repo := NewBalanceRepository(db, portfolio)

	_, err := repo.GetBalance("nadie")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestHasSufficientBalance(t *testing.T) {
	db := openTestDB(t)
	portfolio := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{"BTC": 1000}})
	repo := NewBalanceRepository(db, portfolio)
	insertTestUser(t, db, "u1")

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.AddFunds(tx, "u1", "BTC", 1, 1000))
	require.NoError(t, tx.Commit())

	ok, err := repo.HasSufficientBalance("u1", 1000)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasSufficientBalance("u1", 1000.01)
	require.NoError(t, err)
	assert.False(t, ok)
}
