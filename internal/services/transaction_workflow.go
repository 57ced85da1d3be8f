package services

import (
	"database/sql"
	"errors"
	"log"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/repository"
)

// TransactionWorkflow orquesta el ciclo de vida de las solicitudes de depósito
// y retiro: creación, edición mientras están pendientes, y la aprobación que
// mueve fondos dentro de una única transacción de base de datos.
type TransactionWorkflow struct {
	db           *sql.DB
	transactions *repository.TransactionRepository
	balances     *repository.BalanceRepository
	portfolio    *repository.PortfolioRepository
	users        *repository.UserRepository
	oracle       repository.PriceOracle
}

// NewTransactionWorkflow crea el workflow de transacciones.
func NewTransactionWorkflow(
	db *sql.DB,
	transactions *repository.TransactionRepository,
	balances *repository.BalanceRepository,
	portfolio *repository.PortfolioRepository,
	users *repository.UserRepository,
	oracle repository.PriceOracle,
) *TransactionWorkflow {
	return &TransactionWorkflow{
		db:           db,
		transactions: transactions,
		balances:     balances,
		portfolio:    portfolio,
		users:        users,
		oracle:       oracle,
	}
}

// Request crea una solicitud en estado pending. No mueve fondos: el precio y
// el valor en USD se congelan recién al aprobar.
func (w *TransactionWorkflow) Request(t *models.Transaction) error {
	if t.Amount <= 0 {
		return &models.ValidationError{Field: "amount", Reason: "la cantidad debe ser mayor a cero"}
	}
	if t.Type != models.TransactionTypeDeposit && t.Type != models.TransactionTypeWithdraw {
		return &models.ValidationError{Field: "type", Reason: "el tipo debe ser deposit o withdraw"}
	}

	// Validar que el ticker exista. Si el oráculo está caído no bloqueamos la
	// solicitud: el precio se resuelve de todas formas al aprobar.
	if _, err := w.oracle.GetPrice(t.Ticker); errors.Is(err, models.ErrPriceNotFound) {
		return &models.ValidationError{Field: "ticker", Reason: err.Error()}
	}

	return w.transactions.Create(t)
}

// Approve aprueba una solicitud pendiente. Congela el precio del momento,
// mueve los fondos y reconcilia el balance, todo dentro de una única
// transacción: si cualquier paso falla no queda ningún efecto parcial.
func (w *TransactionWorkflow) Approve(transactionID, approver string) (*models.Transaction, error) {
	t, err := w.transactions.GetByID(transactionID)
	if err != nil {
		return nil, err
	}

	switch t.Status {
	case models.TransactionStatusApproved:
		return nil, models.ErrAlreadyApproved
	case models.TransactionStatusRejected:
		return nil, models.ErrImmutableRejected
	}

	// El precio se resuelve antes de abrir la transacción: acá una falla del
	// oráculo aborta la aprobación, no degrada.
	price, err := w.oracle.GetPrice(t.Ticker)
	if err != nil {
		return nil, err
	}
	usdValue := models.Round8(price * t.Amount)

	// Verificación previa del retiro, de solo lectura
	if t.Type == models.TransactionTypeWithdraw {
		if _, err := w.portfolio.CanWithdraw(t.UserID, t.Ticker, t.Amount); err != nil {
			return nil, err
		}
	}

	tx, err := w.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t.PriceAtApproval = price
	t.UsdValueAtApproval = usdValue
	t.ApprovedBy = approver

	// La guarda sobre status='pending' del Finalize resuelve la carrera de
	// dos aprobaciones concurrentes: solo una afecta la fila
	if err := w.transactions.Finalize(tx, t, models.TransactionStatusApproved); err != nil {
		return nil, err
	}

	if t.Type == models.TransactionTypeDeposit {
		err = w.balances.AddFunds(tx, t.UserID, t.Ticker, t.Amount, usdValue)
	} else {
		err = w.balances.DeductFunds(tx, t.UserID, t.Ticker, t.Amount, usdValue)
	}
	if err != nil {
		return nil, err
	}

	if _, err := w.portfolio.ReconcileBalance(tx, t.UserID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	go w.notifyStatus(t)
	return t, nil
}

// Reject rechaza una solicitud pendiente sin mover fondos. Rechazar una ya
// rechazada es un no-op exitoso.
func (w *TransactionWorkflow) Reject(transactionID, approver string) (*models.Transaction, error) {
	t, err := w.transactions.GetByID(transactionID)
	if err != nil {
		return nil, err
	}

	switch t.Status {
	case models.TransactionStatusApproved:
		return nil, models.ErrImmutableApproved
	case models.TransactionStatusRejected:
		return t, nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t.ApprovedBy = approver
	if err := w.transactions.Finalize(tx, t, models.TransactionStatusRejected); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	go w.notifyStatus(t)
	return t, nil
}

// Update edita los campos de una solicitud pendiente. Las finalizadas son
// inmutables campo por campo.
func (w *TransactionWorkflow) Update(transactionID string, patch *models.Transaction) (*models.Transaction, error) {
	t, err := w.transactions.GetByID(transactionID)
	if err != nil {
		return nil, err
	}

	if err := t.Status.EnsureMutable(); err != nil {
		return nil, err
	}

	if patch.CryptoName != "" {
		t.CryptoName = patch.CryptoName
	}
	if patch.Ticker != "" {
		t.Ticker = patch.Ticker
	}
	if patch.Amount > 0 {
		t.Amount = patch.Amount
	}
	if patch.Type != "" {
		if patch.Type != models.TransactionTypeDeposit && patch.Type != models.TransactionTypeWithdraw {
			return nil, &models.ValidationError{Field: "type", Reason: "el tipo debe ser deposit o withdraw"}
		}
		t.Type = patch.Type
	}
	if patch.Note != "" {
		t.Note = patch.Note
	}

	if err := w.transactions.UpdateFields(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete elimina una solicitud pendiente o rechazada. Las aprobadas ya
// movieron fondos y no se eliminan.
func (w *TransactionWorkflow) Delete(transactionID string) error {
	t, err := w.transactions.GetByID(transactionID)
	if err != nil {
		return err
	}

	if t.Status == models.TransactionStatusApproved {
		return models.ErrImmutableApproved
	}

	return w.transactions.Delete(transactionID)
}

// GetByUser devuelve las solicitudes de un usuario.
func (w *TransactionWorkflow) GetByUser(userID string) ([]models.Transaction, error) {
	return w.transactions.GetByUser(userID)
}

// GetByID devuelve una solicitud puntual.
func (w *TransactionWorkflow) GetByID(transactionID string) (*models.Transaction, error) {
	return w.transactions.GetByID(transactionID)
}

// GetPending devuelve la cola de revisión del administrador.
func (w *TransactionWorkflow) GetPending() ([]models.Transaction, error) {
	return w.transactions.GetPending()
}

func (w *TransactionWorkflow) notifyStatus(t *models.Transaction) {
	user, err := w.users.GetUserById(t.UserID)
	if err != nil {
		log.Printf("No se pudo notificar la transacción %s: %v", t.ID, err)
		return
	}
	if err := SendTransactionStatusEmail(user.Email, t); err != nil {
		log.Printf("Error al enviar notificación de transacción %s: %v", t.ID, err)
	}
}
