package repository

import (
	"testing"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditPromediaPrecio(t *testing.T) {
	db := openTestDB(t)
	repo := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{}})
	insertTestUser(t, db, "u1")

	// 1 BTC a 40000 y después 1 BTC a 60000: promedio 50000
	credit(t, db, repo, "u1", "BTC", 1, 40000)
	credit(t, db, repo, "u1", "BTC", 1, 60000)

	holding, err := repo.GetHolding("u1", "BTC")
	require.NoError(t, err)
	assert.InDelta(t, 2, holding.Amount, 1e-8)
	assert.InDelta(t, 50000, holding.AvgPrice, 1e-8)
	assert.InDelta(t, 100000, holding.TotalInvested, 1e-8)
}

func TestDebitProporcional(t *testing.T) {
	db := openTestDB(t)
	repo := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{}})
	insertTestUser(t, db, "u1")

	credit(t, db, repo, "u1", "ETH", 10, 20000)

	// Debitar el 40% reduce el costo en el mismo 40%; el promedio no cambia
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.Debit(tx, "u1", "ETH", 4))
	require.NoError(t, tx.Commit())

	holding, err := repo.GetHolding("u1", "ETH")
	require.NoError(t, err)
	assert.InDelta(t, 6, holding.Amount, 1e-8)
	assert.InDelta(t, 12000, holding.TotalInvested, 1e-8)
	assert.InDelta(t, 2000, holding.AvgPrice, 1e-8)
}

func TestDebitCompletoEliminaLaFila(t *testing.T) {
	db := openTestDB(t)
	repo := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{}})
	insertTestUser(t, db, "u1")

	credit(t, db, repo, "u1", "SOL", 5, 500)

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.Debit(tx, "u1", "SOL", 5))
	require.NoError(t, tx.Commit())

	_, err = repo.GetHolding("u1", "SOL")
	assert.ErrorIs(t, err, models.ErrHoldingNotFound)
}

func TestDebitInsuficienteInformaDeficit(t *testing.T) {
	db := openTestDB(t)
	repo := NewPortfolioRepository(db, &fakeOracle{prices: map[string]float64{}})
	insertTestUser(t, db, "u1")

	credit(t, db, repo, "u1", "BTC", 1, 50000)

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = repo.Debit(tx, "u1", "BTC", 2)
	var tokenErr *models.InsufficientTokenBalanceError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "BTC", tokenErr.Ticker)
	assert.InDelta(t, 2, tokenErr.Required, 1e-8)
	assert.InDelta(t, 1, tokenErr.Available, 1e-8)
	assert.InDelta(t, 1, tokenErr.Deficit, 1e-8)

	// Sin tenencia: disponible cero
	err = repo.Debit(tx, "u1", "DOGE", 100)
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, 0.0, tokenErr.Available)
}

func TestValuateDegradaLineasSinPrecio(t *testing.T) {
	db := openTestDB(t)
	oracle := &fakeOracle{prices: map[string]float64{"BTC": 50000, "ETH": 2500}}
	repo := NewPortfolioRepository(db, oracle)
	insertTestUser(t, db, "u1")

	credit(t, db, repo, "u1", "BTC", 1, 40000)
	credit(t, db, repo, "u1", "ETH", 2, 4000)
	credit(t, db, repo, "u1", "XXX", 100, 1000) // sin precio en el oráculo

	valuation, err := repo.Valuate("u1")
	require.NoError(t, err)
	require.Len(t, valuation.Holdings, 3)

	// Los totales solo suman las líneas con precio: 50000 + 5000
	assert.InDelta(t, 55000, valuation.TotalCurrentValue, 1e-8)
	assert.InDelta(t, 44000, valuation.TotalInvested, 1e-8)
	assert.InDelta(t, 11000, valuation.TotalProfit, 1e-8)

	// Ordenado de mayor a menor valor; la línea degradada queda última
	assert.Equal(t, "BTC", valuation.Holdings[0].Ticker)
	assert.Equal(t, "ETH", valuation.Holdings[1].Ticker)
	assert.Equal(t, "XXX", valuation.Holdings[2].Ticker)
	assert.False(t, valuation.Holdings[2].PriceAvailable)
	assert.True(t, valuation.Holdings[0].PriceAvailable)
}

func TestCanWithdraw(t *testing.T) {
	db := openTestDB(t)
	oracle := &fakeOracle{prices: map[string]float64{"BTC": 50000}}
	repo := NewPortfolioRepository(db, oracle)
	insertTestUser(t, db, "u1")

	credit(t, db, repo, "u1", "BTC", 2, 80000)

	usdValue, err := repo.CanWithdraw("u1", "BTC", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 25000, usdValue, 1e-8)

	_, err = repo.CanWithdraw("u1", "BTC", 3)
	var tokenErr *models.InsufficientTokenBalanceError
	assert.ErrorAs(t, err, &tokenErr)
}

func TestReconcileBalancePersiste(t *testing.T) {
	db := openTestDB(t)
	oracle := &fakeOracle{prices: map[string]float64{"BTC": 50000}}
	repo := NewPortfolioRepository(db, oracle)
	insertTestUser(t, db, "u1")

	credit(t, db, repo, "u1", "BTC", 2, 80000)

	tx, err := db.Begin()
	require.NoError(t, err)
	balance, err := repo.ReconcileBalance(tx, "u1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.InDelta(t, 100000, balance, 1e-8)

	var persisted float64
	require.NoError(t, db.QueryRow(`SELECT account_balance FROM users WHERE id = 'u1'`).Scan(&persisted))
	assert.InDelta(t, 100000, persisted, 1e-8)
}

func TestReconcileBalanceAbortaSinPrecio(t *testing.T) {
	db := openTestDB(t)
	oracle := &fakeOracle{prices: map[string]float64{}}
	repo := NewPortfolioRepository(db, oracle)
	insertTestUser(t, db, "u1")

	credit(t, db, repo, "u1", "BTC", 1, 50000)

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = repo.ReconcileBalance(tx, "u1")
	assert.ErrorIs(t, err, models.ErrPriceUnavailable)
}
