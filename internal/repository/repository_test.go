package repository

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/database"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

// openTestDB abre una base sqlite de archivo temporal con el esquema completo.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.CreateSchema(db))
	return db
}

// fakeOracle es un oráculo de precios fijo para las pruebas. Los tickers que
// no figuran devuelven ErrPriceNotFound.
type fakeOracle struct {
	prices map[string]float64
}

func (o *fakeOracle) GetPrice(ticker string) (float64, error) {
	price, ok := o.prices[ticker]
	if !ok {
		return 0, fmt.Errorf("%w: %s", models.ErrPriceNotFound, ticker)
	}
	return price, nil
}

func insertTestUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO users (id, email, password, name, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, id+"@test.com", "hash", "Usuario "+id, models.RoleUser, time.Now(),
	)
	require.NoError(t, err)
}

// credit acredita una tenencia dentro de su propia transacción, para no
// repetir el baile Begin/Commit en cada prueba.
func credit(t *testing.T, db *sql.DB, repo *PortfolioRepository, userID, ticker string, amount, usdValue float64) {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.Credit(tx, userID, ticker, amount, usdValue))
	require.NoError(t, tx.Commit())
}
