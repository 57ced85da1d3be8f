package repository

import (
	"database/sql"
	"log"
	"sort"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
)

// PriceOracle es la fuente de precios en vivo que consumen los ledgers. La
// implementación real vive en services; acá solo se declara lo que se usa.
type PriceOracle interface {
	GetPrice(ticker string) (float64, error)
}

// dbtx permite ejecutar las mismas consultas sobre *sql.DB o dentro de una
// transacción *sql.Tx.
type dbtx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// PortfolioRepository maneja las tenencias por usuario×activo: acreditaciones,
// débitos y valuación contra el oráculo de precios.
type PortfolioRepository struct {
	db     *sql.DB
	oracle PriceOracle
}

// NewPortfolioRepository crea el ledger de portafolio.
func NewPortfolioRepository(db *sql.DB, oracle PriceOracle) *PortfolioRepository {
	return &PortfolioRepository{
		db:     db,
		oracle: oracle,
	}
}

// GetHolding obtiene la tenencia de un usuario para un activo.
func (r *PortfolioRepository) GetHolding(userID, ticker string) (*models.Holding, error) {
	return r.getHolding(r.db, userID, ticker)
}

func (r *PortfolioRepository) getHolding(q dbtx, userID, ticker string) (*models.Holding, error) {
	holding := &models.Holding{}
	query := `
		SELECT user_id, ticker, amount, avg_price, total_invested, updated_at
		FROM holdings
		WHERE user_id = $1 AND ticker = $2`

	err := q.QueryRow(query, userID, ticker).Scan(
		&holding.UserID,
		&holding.Ticker,
		&holding.Amount,
		&holding.AvgPrice,
		&holding.TotalInvested,
		&holding.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrHoldingNotFound
	}

	return holding, err
}

// GetHoldings obtiene todas las tenencias de un usuario.
func (r *PortfolioRepository) GetHoldings(userID string) ([]models.Holding, error) {
	return r.getHoldings(r.db, userID)
}

func (r *PortfolioRepository) getHoldings(q dbtx, userID string) ([]models.Holding, error) {
	query := `
		SELECT user_id, ticker, amount, avg_price, total_invested, updated_at
		FROM holdings
		WHERE user_id = $1`

	rows, err := q.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := []models.Holding{}
	for rows.Next() {
		var h models.Holding
		err := rows.Scan(&h.UserID, &h.Ticker, &h.Amount, &h.AvgPrice, &h.TotalInvested, &h.UpdatedAt)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}

	return holdings, rows.Err()
}

// Credit acredita una cantidad de un activo con su valor en USD. Si la
// tenencia ya existe se promedia el precio de compra.
func (r *PortfolioRepository) Credit(tx *sql.Tx, userID, ticker string, assetAmount, usdValue float64) error {
	if assetAmount <= 0 {
		return &models.ValidationError{Field: "amount", Reason: "la cantidad debe ser mayor a cero"}
	}

	holding, err := r.getHolding(tx, userID, ticker)
	if err != nil && err != models.ErrHoldingNotFound {
		return err
	}

	now := time.Now()

	if err == models.ErrHoldingNotFound {
		avgPrice := 0.0
		if assetAmount > 0 {
			avgPrice = usdValue / assetAmount
		}
		insertSQL := `
			INSERT INTO holdings (user_id, ticker, amount, avg_price, total_invested, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`
		_, err := tx.Exec(insertSQL, userID, ticker,
			models.Round8(assetAmount), avgPrice, models.Round8(usdValue), now)
		return err
	}

	newAmount := models.Round8(holding.Amount + assetAmount)
	newInvested := models.Round8(holding.TotalInvested + usdValue)
	newAvgPrice := holding.AvgPrice
	if newAmount > 0 {
		newAvgPrice = newInvested / newAmount
	}

	updateSQL := `
		UPDATE holdings
		SET amount = $1, avg_price = $2, total_invested = $3, updated_at = $4
		WHERE user_id = $5 AND ticker = $6`
	_, err = tx.Exec(updateSQL, newAmount, newAvgPrice, newInvested, now, userID, ticker)
	return err
}

// Debit debita una cantidad de un activo. El costo invertido se reduce en
// proporción a la fracción debitada; si la tenencia queda en polvo
// (por debajo de DustThreshold) se elimina la fila.
func (r *PortfolioRepository) Debit(tx *sql.Tx, userID, ticker string, assetAmount float64) error {
	if assetAmount <= 0 {
		return &models.ValidationError{Field: "amount", Reason: "la cantidad debe ser mayor a cero"}
	}

	holding, err := r.getHolding(tx, userID, ticker)
	if err == models.ErrHoldingNotFound {
		return models.NewInsufficientTokenBalance(ticker, assetAmount, 0)
	}
	if err != nil {
		return err
	}

	if holding.Amount+models.DustThreshold < assetAmount {
		return models.NewInsufficientTokenBalance(ticker, assetAmount, holding.Amount)
	}

	newAmount := models.Round8(holding.Amount - assetAmount)
	if newAmount < models.DustThreshold {
		_, err := tx.Exec(`DELETE FROM holdings WHERE user_id = $1 AND ticker = $2`, userID, ticker)
		return err
	}

	// El precio promedio no cambia al vender: solo se reduce el costo en la
	// misma fracción que la cantidad
	fraction := assetAmount / holding.Amount
	newInvested := models.Round8(holding.TotalInvested * (1 - fraction))

	updateSQL := `
		UPDATE holdings
		SET amount = $1, total_invested = $2, updated_at = $3
		WHERE user_id = $4 AND ticker = $5`
	_, err = tx.Exec(updateSQL, newAmount, newInvested, time.Now(), userID, ticker)
	return err
}

// Valuate calcula el valor actual del portafolio de un usuario contra el
// oráculo de precios. Si el precio de un activo no está disponible, esa línea
// se degrada (price_available=false) sin abortar el agregado; los totales se
// calculan solo sobre las líneas con precio.
func (r *PortfolioRepository) Valuate(userID string) (*models.PortfolioValuation, error) {
	return r.valuate(r.db, userID)
}

func (r *PortfolioRepository) valuate(q dbtx, userID string) (*models.PortfolioValuation, error) {
	holdings, err := r.getHoldings(q, userID)
	if err != nil {
		return nil, err
	}

	valuation := &models.PortfolioValuation{
		Holdings: []models.HoldingValuation{},
	}

	for _, h := range holdings {
		hv := models.HoldingValuation{
			Ticker:        h.Ticker,
			Amount:        h.Amount,
			AvgPrice:      h.AvgPrice,
			TotalInvested: h.TotalInvested,
		}

		price, err := r.oracle.GetPrice(h.Ticker)
		if err != nil {
			log.Printf("Precio no disponible para %s al valuar portafolio de %s: %v", h.Ticker, userID, err)
			valuation.Holdings = append(valuation.Holdings, hv)
			continue
		}

		hv.CurrentPrice = price
		hv.CurrentValue = models.Round8(h.Amount * price)
		hv.ProfitLoss = models.Round8(hv.CurrentValue - h.TotalInvested)
		if h.TotalInvested > 0 {
			hv.ProfitPercent = (hv.ProfitLoss / h.TotalInvested) * 100
		}
		hv.PriceAvailable = true

		valuation.TotalCurrentValue = models.Round8(valuation.TotalCurrentValue + hv.CurrentValue)
		valuation.TotalInvested = models.Round8(valuation.TotalInvested + h.TotalInvested)
		valuation.Holdings = append(valuation.Holdings, hv)
	}

	valuation.TotalProfit = models.Round8(valuation.TotalCurrentValue - valuation.TotalInvested)
	if valuation.TotalInvested > 0 {
		valuation.ProfitPercentage = (valuation.TotalProfit / valuation.TotalInvested) * 100
	}

	// Ordenar de mayor a menor valor actual
	sort.Slice(valuation.Holdings, func(i, j int) bool {
		return valuation.Holdings[i].CurrentValue > valuation.Holdings[j].CurrentValue
	})

	return valuation, nil
}

// CanWithdraw verifica que el usuario tenga la cantidad pedida de un activo y
// que su precio esté disponible. Devuelve el valor en USD del retiro.
func (r *PortfolioRepository) CanWithdraw(userID, ticker string, assetAmount float64) (float64, error) {
	holding, err := r.GetHolding(userID, ticker)
	if err == models.ErrHoldingNotFound {
		return 0, models.NewInsufficientTokenBalance(ticker, assetAmount, 0)
	}
	if err != nil {
		return 0, err
	}

	if holding.Amount+models.DustThreshold < assetAmount {
		return 0, models.NewInsufficientTokenBalance(ticker, assetAmount, holding.Amount)
	}

	price, err := r.oracle.GetPrice(ticker)
	if err != nil {
		return 0, err
	}

	return models.Round8(assetAmount * price), nil
}

// ReconcileBalance recalcula account_balance desde la valuación del
// portafolio y lo persiste. Se invoca dentro de la misma transacción que la
// operación que movió fondos. A diferencia de Valuate, acá una línea sin
// precio aborta la operación: no se persiste un balance incompleto.
func (r *PortfolioRepository) ReconcileBalance(tx *sql.Tx, userID string) (float64, error) {
	valuation, err := r.valuate(tx, userID)
	if err != nil {
		return 0, err
	}

	for _, hv := range valuation.Holdings {
		if !hv.PriceAvailable {
			return 0, models.ErrPriceUnavailable
		}
	}

	balance := models.Round8(valuation.TotalCurrentValue)
	result, err := tx.Exec(`UPDATE users SET account_balance = $1 WHERE id = $2`, balance, userID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, models.ErrUserNotFound
	}

	return balance, nil
}
