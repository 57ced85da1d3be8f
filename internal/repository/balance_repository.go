package repository

import (
	"database/sql"
	"log"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
)

// BalanceRepository maneja los dos escalares de balance del usuario:
// account_balance (poder de compra) y total_investment (histórico depositado).
// Todo movimiento pasa por el ledger de portafolio para que el balance y las
// tenencias nunca se desincronicen.
type BalanceRepository struct {
	db        *sql.DB
	portfolio *PortfolioRepository
}

// NewBalanceRepository crea el ledger de balances.
func NewBalanceRepository(db *sql.DB, portfolio *PortfolioRepository) *BalanceRepository {
	return &BalanceRepository{
		db:        db,
		portfolio: portfolio,
	}
}

// GetBalance devuelve el balance en USD de la cuenta. Los registros anteriores
// a la columna account_balance (NULL) se inicializan desde total_investment y
// se persisten en el momento.
func (r *BalanceRepository) GetBalance(userID string) (float64, error) {
	var balance sql.NullFloat64
	var totalInvestment float64

	query := `SELECT account_balance, total_investment FROM users WHERE id = $1`
	err := r.db.QueryRow(query, userID).Scan(&balance, &totalInvestment)
	if err == sql.ErrNoRows {
		return 0, models.ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}

	if balance.Valid {
		return balance.Float64, nil
	}

	// Inicialización perezosa para registros viejos
	log.Printf("Inicializando account_balance de %s desde total_investment (%.8f)", userID, totalInvestment)
	_, err = r.db.Exec(`UPDATE users SET account_balance = $1 WHERE id = $2`, totalInvestment, userID)
	if err != nil {
		return 0, err
	}

	return totalInvestment, nil
}

// HasSufficientBalance verifica que el balance alcance para un monto en USD.
func (r *BalanceRepository) HasSufficientBalance(userID string, usdValue float64) (bool, error) {
	balance, err := r.GetBalance(userID)
	if err != nil {
		return false, err
	}
	return balance+models.DustThreshold >= usdValue, nil
}

// Reconcile recalcula y persiste el balance de un usuario desde la valuación
// en vivo de su portafolio, en su propia transacción. Es el camino del disparo
// manual del administrador; las aprobaciones reconcilian dentro de su propia
// transacción.
func (r *BalanceRepository) Reconcile(userID string) (float64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	balance, err := r.portfolio.ReconcileBalance(tx, userID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// AddFunds acredita un depósito aprobado: incrementa account_balance y
// total_investment, y acredita el activo en el portafolio. Debe invocarse
// dentro de la transacción de la aprobación.
func (r *BalanceRepository) AddFunds(tx *sql.Tx, userID, ticker string, assetAmount, usdValue float64) error {
	if usdValue <= 0 {
		return &models.ValidationError{Field: "usd_value", Reason: "el valor en USD debe ser mayor a cero"}
	}

	updateSQL := `
		UPDATE users
		SET account_balance = COALESCE(account_balance, total_investment) + $1,
		    total_investment = total_investment + $2
		WHERE id = $3`

	result, err := tx.Exec(updateSQL, usdValue, usdValue, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrUserNotFound
	}

	return r.portfolio.Credit(tx, userID, ticker, assetAmount, usdValue)
}

// DeductFunds debita un retiro aprobado. Primero se debita el activo del
// portafolio, para que una tenencia insuficiente aborte antes de tocar el
// balance; recién después se decrementa account_balance.
func (r *BalanceRepository) DeductFunds(tx *sql.Tx, userID, ticker string, assetAmount, usdValue float64) error {
	var balance sql.NullFloat64
	var totalInvestment float64
	err := tx.QueryRow(`SELECT account_balance, total_investment FROM users WHERE id = $1`, userID).
		Scan(&balance, &totalInvestment)
	if err == sql.ErrNoRows {
		return models.ErrUserNotFound
	}
	if err != nil {
		return err
	}

	available := totalInvestment
	if balance.Valid {
		available = balance.Float64
	}

	if available+models.DustThreshold < usdValue {
		return models.NewInsufficientFunds(usdValue, available)
	}

	if err := r.portfolio.Debit(tx, userID, ticker, assetAmount); err != nil {
		return err
	}

	newBalance := models.Round8(available - usdValue)
	_, err = tx.Exec(`UPDATE users SET account_balance = $1 WHERE id = $2`, newBalance, userID)
	return err
}
