package services

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/database"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/repository"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

// fakeOracle es un oráculo de precios fijo para las pruebas.
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

// testStack levanta la base y todos los repositorios sobre un oráculo fijo.
type testStack struct {
	db           *sql.DB
	oracle       *fakeOracle
	users        *repository.UserRepository
	portfolio    *repository.PortfolioRepository
	balances     *repository.BalanceRepository
	transactions *repository.TransactionRepository
	plans        *repository.PlanRepository
	purchases    *repository.CopytradeRepository
}

func newTestStack(t *testing.T, prices map[string]float64) *testStack {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.CreateSchema(db))

	oracle := &fakeOracle{prices: prices}
	portfolio := repository.NewPortfolioRepository(db, oracle)

	return &testStack{
		db:           db,
		oracle:       oracle,
		users:        repository.NewUserRepositoryWithDB(db),
		portfolio:    portfolio,
		balances:     repository.NewBalanceRepository(db, portfolio),
		transactions: repository.NewTransactionRepository(db),
		plans:        repository.NewPlanRepository(db),
		purchases:    repository.NewCopytradeRepository(db),
	}
}

func (s *testStack) workflow() *TransactionWorkflow {
	return NewTransactionWorkflow(s.db, s.transactions, s.balances, s.portfolio, s.users, s.oracle)
}

func (s *testStack) copytrade() *CopytradeService {
	return NewCopytradeService(s.db, s.plans, s.purchases, s.portfolio, s.balances)
}

func (s *testStack) simulation() *SimulationEngine {
	return NewSimulationEngine(s.db, s.purchases, s.balances, s.portfolio, s.users)
}

func (s *testStack) addUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, s.users.CreateUser(&models.User{
		ID:        id,
		Email:     id + "@test.com",
		Password:  "hash",
		Name:      "Usuario " + id,
		CreatedAt: time.Now(),
	}))
}

// deposit aprueba un depósito completo para dejar fondos en el portafolio.
func (s *testStack) deposit(t *testing.T, userID, ticker string, amount float64) {
	t.Helper()
	w := s.workflow()
	tr := &models.Transaction{UserID: userID, Ticker: ticker, Amount: amount, Type: models.TransactionTypeDeposit}
	require.NoError(t, w.Request(tr))
	_, err := w.Approve(tr.ID, "admin")
	require.NoError(t, err)
}
