package repository

import (
	"database/sql"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/google/uuid"
)

// PlanRepository persiste el catálogo de planes de copytrade.
type PlanRepository struct {
	db *sql.DB
}

func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `
	id, name, trader, description, min_investment, max_investment,
	roi_min, roi_max, risk, duration_days, active, created_at, updated_at`

func scanPlan(row interface{ Scan(...interface{}) error }) (*models.CopytradePlan, error) {
	p := &models.CopytradePlan{}
	var trader, description sql.NullString

	err := row.Scan(
		&p.ID, &p.Name, &trader, &description, &p.MinInvestment, &p.MaxInvestment,
		&p.RoiMin, &p.RoiMax, &p.Risk, &p.DurationDays, &p.Active,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Trader = trader.String
	p.Description = description.String
	return p, nil
}

// Create inserta un plan nuevo en el catálogo.
func (r *PlanRepository) Create(p *models.CopytradePlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO copytrade_plans (id, name, trader, description, min_investment, max_investment,
			roi_min, roi_max, risk, duration_days, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(query, p.ID, p.Name, p.Trader, p.Description,
		p.MinInvestment, p.MaxInvestment, p.RoiMin, p.RoiMax,
		p.Risk, p.DurationDays, p.Active, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetByID obtiene un plan por id.
func (r *PlanRepository) GetByID(id string) (*models.CopytradePlan, error) {
	query := `SELECT ` + planColumns + ` FROM copytrade_plans WHERE id = $1`

	p, err := scanPlan(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrPlanNotFound
	}
	return p, err
}

// GetAll obtiene el catálogo. Con activeOnly se filtran los planes retirados.
func (r *PlanRepository) GetAll(activeOnly bool) ([]models.CopytradePlan, error) {
	query := `SELECT ` + planColumns + ` FROM copytrade_plans`
	args := []interface{}{}
	if activeOnly {
		query += ` WHERE active = $1`
		args = append(args, true)
	}
	query += ` ORDER BY min_investment ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []models.CopytradePlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// Update actualiza un plan del catálogo. Las compras ya emitidas no se ven
// afectadas porque llevan su propia foto del plan.
func (r *PlanRepository) Update(p *models.CopytradePlan) error {
	p.UpdatedAt = time.Now()
	query := `
		UPDATE copytrade_plans
		SET name = $1, trader = $2, description = $3, min_investment = $4,
		    max_investment = $5, roi_min = $6, roi_max = $7, risk = $8,
		    duration_days = $9, active = $10, updated_at = $11
		WHERE id = $12`

	result, err := r.db.Exec(query, p.Name, p.Trader, p.Description,
		p.MinInvestment, p.MaxInvestment, p.RoiMin, p.RoiMax, p.Risk,
		p.DurationDays, p.Active, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrPlanNotFound
	}
	return nil
}

// Delete elimina un plan del catálogo.
func (r *PlanRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM copytrade_plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrPlanNotFound
	}
	return nil
}
