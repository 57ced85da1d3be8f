package repository

import (
	"database/sql"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/google/uuid"
)

// TransactionRepository persiste las solicitudes de depósito y retiro.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, user_id, crypto_name, ticker, amount, type, status, note,
	price_at_approval, usd_value_at_approval, approved_by, approved_at,
	created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*models.Transaction, error) {
	t := &models.Transaction{}
	var note, approvedBy sql.NullString
	var approvedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.UserID, &t.CryptoName, &t.Ticker, &t.Amount, &t.Type,
		&t.Status, &note, &t.PriceAtApproval, &t.UsdValueAtApproval,
		&approvedBy, &approvedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Note = note.String
	t.ApprovedBy = approvedBy.String
	if approvedAt.Valid {
		t.ApprovedAt = &approvedAt.Time
	}
	return t, nil
}

// Create inserta una solicitud nueva en estado pending.
func (r *TransactionRepository) Create(t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Status = models.TransactionStatusPending
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	query := `
		INSERT INTO transactions (id, user_id, crypto_name, ticker, amount, type, status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query, t.ID, t.UserID, t.CryptoName, t.Ticker,
		t.Amount, t.Type, t.Status, t.Note, t.CreatedAt, t.UpdatedAt)
	return err
}

// GetByID obtiene una transacción por id.
func (r *TransactionRepository) GetByID(id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrTransactionNotFound
	}
	return t, err
}

// GetByUser obtiene las transacciones de un usuario, más reciente primero.
func (r *TransactionRepository) GetByUser(userID string) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE user_id = $1
		ORDER BY created_at DESC`

	return r.queryMany(query, userID)
}

// GetPending obtiene todas las solicitudes pendientes, más antigua primero,
// para la cola de revisión del administrador.
func (r *TransactionRepository) GetPending() ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE status = $1
		ORDER BY created_at ASC`

	return r.queryMany(query, models.TransactionStatusPending)
}

func (r *TransactionRepository) queryMany(query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// UpdateFields actualiza los campos editables de una solicitud pendiente. La
// guarda de estado la aplica el workflow antes de llamar acá.
func (r *TransactionRepository) UpdateFields(t *models.Transaction) error {
	t.UpdatedAt = time.Now()
	query := `
		UPDATE transactions
		SET crypto_name = $1, ticker = $2, amount = $3, type = $4, note = $5, updated_at = $6
		WHERE id = $7 AND status = $8`

	result, err := r.db.Exec(query, t.CryptoName, t.Ticker, t.Amount, t.Type,
		t.Note, t.UpdatedAt, t.ID, models.TransactionStatusPending)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrTransactionNotFound
	}
	return nil
}

// Finalize pasa una solicitud de pending al estado terminal indicado, junto
// con la foto de aprobación. El WHERE sobre status = 'pending' es la guarda
// contra aprobaciones concurrentes: si otra petición ya la finalizó, acá no se
// afecta ninguna fila.
func (r *TransactionRepository) Finalize(tx *sql.Tx, t *models.Transaction, status models.TransactionStatus) error {
	if !status.IsFinal() {
		return &models.ValidationError{Field: "status", Reason: "el estado destino debe ser terminal"}
	}

	now := time.Now()
	query := `
		UPDATE transactions
		SET status = $1, price_at_approval = $2, usd_value_at_approval = $3,
		    approved_by = $4, approved_at = $5, updated_at = $6
		WHERE id = $7 AND status = $8`

	result, err := tx.Exec(query, status, t.PriceAtApproval, t.UsdValueAtApproval,
		t.ApprovedBy, now, now, t.ID, models.TransactionStatusPending)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrAlreadyApproved
	}

	t.Status = status
	t.ApprovedAt = &now
	t.UpdatedAt = now
	return nil
}

// Delete elimina una solicitud. Las aprobadas no se tocan: la guarda está en
// el workflow y acá se refuerza en el WHERE.
func (r *TransactionRepository) Delete(id string) error {
	query := `DELETE FROM transactions WHERE id = $1 AND status != $2`

	result, err := r.db.Exec(query, id, models.TransactionStatusApproved)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrTransactionNotFound
	}
	return nil
}
