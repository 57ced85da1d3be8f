package services

import (
	"testing"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAprobarDeposito(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	w := stack.workflow()

	tr := &models.Transaction{UserID: "u1", Ticker: "BTC", Amount: 2, Type: models.TransactionTypeDeposit}
	require.NoError(t, w.Request(tr))
	require.Equal(t, models.TransactionStatusPending, tr.Status)

	approved, err := w.Approve(tr.ID, "admin")
	require.NoError(t, err)

	// La foto quedó congelada al precio del momento
	assert.Equal(t, models.TransactionStatusApproved, approved.Status)
	assert.InDelta(t, 2000, approved.PriceAtApproval, 1e-8)
	assert.InDelta(t, 4000, approved.UsdValueAtApproval, 1e-8)
	assert.Equal(t, "admin", approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	// Balance y tenencia acreditados
	balance, err := stack.balances.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 4000, balance, 1e-8)

	holding, err := stack.portfolio.GetHolding("u1", "BTC")
	require.NoError(t, err)
	assert.InDelta(t, 2, holding.Amount, 1e-8)
}

func TestAprobarDosVecesNoDuplicaFondos(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	w := stack.workflow()

	tr := &models.Transaction{UserID: "u1", Ticker: "BTC", Amount: 1, Type: models.TransactionTypeDeposit}
	require.NoError(t, w.Request(tr))

	_, err := w.Approve(tr.ID, "admin")
	require.NoError(t, err)

	_, err = w.Approve(tr.ID, "admin")
	assert.ErrorIs(t, err, models.ErrAlreadyApproved)

	balance, err := stack.balances.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 2000, balance, 1e-8)
}

func TestAprobarRetiro(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"ETH": 1000})
	stack.addUser(t, "u1")
	stack.deposit(t, "u1", "ETH", 5)
	w := stack.workflow()

	tr := &models.Transaction{UserID: "u1", Ticker: "ETH", Amount: 2, Type: models.TransactionTypeWithdraw}
	require.NoError(t, w.Request(tr))

	approved, err := w.Approve(tr.ID, "admin")
	require.NoError(t, err)
	assert.InDelta(t, 2000, approved.UsdValueAtApproval, 1e-8)

	balance, err := stack.balances.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 3000, balance, 1e-8)

	holding, err := stack.portfolio.GetHolding("u1", "ETH")
	require.NoError(t, err)
	assert.InDelta(t, 3, holding.Amount, 1e-8)
}

func TestRetiroSinTenenciaAborta(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"ETH": 1000, "BTC": 50000})
	stack.addUser(t, "u1")
	stack.deposit(t, "u1", "ETH", 5)
	w := stack.workflow()

	// Pide retirar un activo que no posee: nada cambia
	tr := &models.Transaction{UserID: "u1", Ticker: "BTC", Amount: 1, Type: models.TransactionTypeWithdraw}
	require.NoError(t, w.Request(tr))

	_, err := w.Approve(tr.ID, "admin")
	var tokenErr *models.InsufficientTokenBalanceError
	require.ErrorAs(t, err, &tokenErr)

	stored, err := w.GetByID(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, stored.Status)

	balance, err := stack.balances.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 5000, balance, 1e-8)
}

func TestRechazarNoMueveFondos(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	w := stack.workflow()

	tr := &models.Transaction{UserID: "u1", Ticker: "BTC", Amount: 1, Type: models.TransactionTypeDeposit}
	require.NoError(t, w.Request(tr))

	rejected, err := w.Reject(tr.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRejected, rejected.Status)

	// Rechazar de nuevo es un no-op exitoso
	_, err = w.Reject(tr.ID, "admin")
	assert.NoError(t, err)

	// Aprobar una rechazada no está permitido
	_, err = w.Approve(tr.ID, "admin")
	assert.ErrorIs(t, err, models.ErrImmutableRejected)

	balance, err := stack.balances.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 0, balance, 1e-8)
}

func TestEditarSoloPendientes(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	w := stack.workflow()

	tr := &models.Transaction{UserID: "u1", Ticker: "BTC", Amount: 1, Type: models.TransactionTypeDeposit}
	require.NoError(t, w.Request(tr))

	updated, err := w.Update(tr.ID, &models.Transaction{Amount: 3, Note: "corregido"})
	require.NoError(t, err)
	assert.InDelta(t, 3, updated.Amount, 1e-8)
	assert.Equal(t, "corregido", updated.Note)

	_, err = w.Approve(tr.ID, "admin")
	require.NoError(t, err)

	_, err = w.Update(tr.ID, &models.Transaction{Amount: 10})
	assert.ErrorIs(t, err, models.ErrImmutableApproved)

	err = w.Delete(tr.ID)
	assert.ErrorIs(t, err, models.ErrImmutableApproved)
}

func TestEliminarPendiente(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	w := stack.workflow()

	tr := &models.Transaction{UserID: "u1", Ticker: "BTC", Amount: 1, Type: models.TransactionTypeDeposit}
	require.NoError(t, w.Request(tr))

	require.NoError(t, w.Delete(tr.ID))

	_, err := w.GetByID(tr.ID)
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestAprobarAbortaSinPrecio(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	w := stack.workflow()

	tr := &models.Transaction{UserID: "u1", Ticker: "BTC", Amount: 1, Type: models.TransactionTypeDeposit}
	require.NoError(t, w.Request(tr))

	// El oráculo pierde el precio antes de la aprobación
	delete(stack.oracle.prices, "BTC")

	_, err := w.Approve(tr.ID, "admin")
	assert.ErrorIs(t, err, models.ErrPriceNotFound)

	stored, err := w.GetByID(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, stored.Status)
}

func TestConservacionTrasDepositosYRetiros(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000, "ETH": 1000})
	stack.addUser(t, "u1")
	w := stack.workflow()

	stack.deposit(t, "u1", "BTC", 2)  // 4000
	stack.deposit(t, "u1", "ETH", 3)  // 3000

	tr := &models.Transaction{UserID: "u1", Ticker: "ETH", Amount: 1, Type: models.TransactionTypeWithdraw}
	require.NoError(t, w.Request(tr))
	_, err := w.Approve(tr.ID, "admin")
	require.NoError(t, err)

	// El balance reconciliado coincide con la valuación del portafolio
	valuation, err := stack.portfolio.Valuate("u1")
	require.NoError(t, err)
	balance, err := stack.balances.GetBalance("u1")
	require.NoError(t, err)

	assert.InDelta(t, valuation.TotalCurrentValue, balance, 1e-8)
	assert.InDelta(t, 6000, balance, 1e-8)
}
