package repository

import (
	"database/sql"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/google/uuid"
)

// CopytradeRepository persiste las compras de copytrade y sus transiciones de
// estado. Las transiciones que mueven fondos (activar, completar) reciben la
// transacción del workflow y usan un WHERE sobre el estado previo como guarda
// contra ejecuciones concurrentes.
type CopytradeRepository struct {
	db *sql.DB
}

func NewCopytradeRepository(db *sql.DB) *CopytradeRepository {
	return &CopytradeRepository{db: db}
}

const purchaseColumns = `
	id, user_id, plan_id, plan_name, min_investment, max_investment, risk,
	roi_min, roi_max, duration_days, invested_usd, current_value, profit_loss,
	is_profit, status, start_date, end_date, created_at, updated_at`

func scanPurchase(row interface{ Scan(...interface{}) error }) (*models.CopytradePurchase, error) {
	p := &models.CopytradePurchase{}
	var planName sql.NullString
	var startDate, endDate sql.NullTime

	err := row.Scan(
		&p.ID, &p.UserID, &p.PlanID, &planName, &p.MinInvestment, &p.MaxInvestment,
		&p.Risk, &p.RoiMin, &p.RoiMax, &p.DurationDays, &p.InvestedUsd,
		&p.CurrentValue, &p.ProfitLoss, &p.IsProfit, &p.Status,
		&startDate, &endDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.PlanName = planName.String
	if startDate.Valid {
		p.StartDate = &startDate.Time
	}
	if endDate.Valid {
		p.EndDate = &endDate.Time
	}
	return p, nil
}

// Create inserta una compra nueva en estado pending.
func (r *CopytradeRepository) Create(p *models.CopytradePurchase) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = models.PurchaseStatusPending
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO copytrade_purchases (id, user_id, plan_id, plan_name, min_investment,
			max_investment, risk, roi_min, roi_max, duration_days, invested_usd,
			current_value, profit_loss, is_profit, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.Exec(query, p.ID, p.UserID, p.PlanID, p.PlanName,
		p.MinInvestment, p.MaxInvestment, p.Risk, p.RoiMin, p.RoiMax,
		p.DurationDays, p.InvestedUsd, p.CurrentValue, p.ProfitLoss,
		p.IsProfit, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetByID obtiene una compra por id.
func (r *CopytradeRepository) GetByID(id string) (*models.CopytradePurchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM copytrade_purchases WHERE id = $1`

	p, err := scanPurchase(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrPurchaseNotFound
	}
	return p, err
}

// GetByUser obtiene las compras de un usuario, más reciente primero.
func (r *CopytradeRepository) GetByUser(userID string) ([]models.CopytradePurchase, error) {
	query := `SELECT ` + purchaseColumns + `
		FROM copytrade_purchases WHERE user_id = $1
		ORDER BY created_at DESC`
	return r.queryMany(query, userID)
}

// GetActive obtiene todas las compras activas, para el tick de simulación.
func (r *CopytradeRepository) GetActive() ([]models.CopytradePurchase, error) {
	query := `SELECT ` + purchaseColumns + `
		FROM copytrade_purchases WHERE status = $1`
	return r.queryMany(query, models.PurchaseStatusActive)
}

// GetActiveExpired obtiene las compras activas cuya ventana ya venció, para el
// barrido de liquidación.
func (r *CopytradeRepository) GetActiveExpired(now time.Time) ([]models.CopytradePurchase, error) {
	query := `SELECT ` + purchaseColumns + `
		FROM copytrade_purchases WHERE status = $1 AND end_date <= $2`
	return r.queryMany(query, models.PurchaseStatusActive, now)
}

func (r *CopytradeRepository) queryMany(query string, args ...interface{}) ([]models.CopytradePurchase, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := []models.CopytradePurchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

// UpdateValue persiste el valor simulado de una compra tras un tick horario.
// No mueve fondos, así que no necesita transacción.
func (r *CopytradeRepository) UpdateValue(p *models.CopytradePurchase) error {
	p.UpdatedAt = time.Now()
	query := `
		UPDATE copytrade_purchases
		SET current_value = $1, profit_loss = $2, is_profit = $3, updated_at = $4
		WHERE id = $5 AND status = $6`

	_, err := r.db.Exec(query, p.CurrentValue, p.ProfitLoss, p.IsProfit,
		p.UpdatedAt, p.ID, models.PurchaseStatusActive)
	return err
}

// Activate pasa una compra de pending a active con su ventana de simulación.
// Si otra petición ya la activó, el WHERE no afecta filas y se devuelve
// ErrAlreadyApproved.
func (r *CopytradeRepository) Activate(tx *sql.Tx, p *models.CopytradePurchase) error {
	now := time.Now()
	query := `
		UPDATE copytrade_purchases
		SET status = $1, current_value = $2, profit_loss = $3, is_profit = $4,
		    start_date = $5, end_date = $6, updated_at = $7
		WHERE id = $8 AND status = $9`

	result, err := tx.Exec(query, models.PurchaseStatusActive,
		p.CurrentValue, p.ProfitLoss, p.IsProfit,
		p.StartDate, p.EndDate, now, p.ID, models.PurchaseStatusPending)
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

	p.Status = models.PurchaseStatusActive
	p.UpdatedAt = now
	return nil
}

// Complete pasa una compra de active a completed con su valor final. El WHERE
// sobre el estado previo hace idempotente la liquidación: la segunda pasada
// devuelve ErrAlreadyCompleted sin acreditar de nuevo.
func (r *CopytradeRepository) Complete(tx *sql.Tx, p *models.CopytradePurchase) error {
	now := time.Now()
	query := `
		UPDATE copytrade_purchases
		SET status = $1, current_value = $2, profit_loss = $3, is_profit = $4,
		    end_date = $5, updated_at = $6
		WHERE id = $7 AND status = $8`

	result, err := tx.Exec(query, models.PurchaseStatusCompleted,
		p.CurrentValue, p.ProfitLoss, p.IsProfit,
		p.EndDate, now, p.ID, models.PurchaseStatusActive)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrAlreadyCompleted
	}

	p.Status = models.PurchaseStatusCompleted
	p.UpdatedAt = now
	return nil
}

// Cancel cancela una compra pendiente. Las activas no se cancelan por esta
// vía: ya debitaron el portafolio y requieren liquidación.
func (r *CopytradeRepository) Cancel(id string) error {
	query := `
		UPDATE copytrade_purchases
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	result, err := r.db.Exec(query, models.PurchaseStatusCancelled, time.Now(),
		id, models.PurchaseStatusPending)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrPurchaseNotFound
	}
	return nil
}
