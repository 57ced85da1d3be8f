package models

import (
	"math"
	"time"
)

// DustThreshold es la cantidad mínima de un activo que se considera distinta
// de cero; por debajo de este umbral la tenencia se elimina.
const DustThreshold = 1e-8

// Round8 redondea un valor a 8 decimales, la precisión con la que se persiste
// todo monto en USD y toda cantidad de activo.
func Round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// Holding es una fila por usuario×activo: cantidad más su base de costo.
// Amount y TotalInvested se mueven juntos; un débito reduce TotalInvested en
// la misma proporción, dejando el precio promedio sin cambios.
type Holding struct {
	UserID        string    `json:"user_id"`
	Ticker        string    `json:"ticker"`
	Amount        float64   `json:"amount"`
	AvgPrice      float64   `json:"avg_price"`
	TotalInvested float64   `json:"total_invested"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HoldingValuation es una tenencia valuada a precio de mercado. Si el oráculo
// falla para este activo, PriceAvailable queda en false y los campos de valor
// actual no son significativos.
type HoldingValuation struct {
	Ticker         string  `json:"ticker"`
	Amount         float64 `json:"amount"`
	AvgPrice       float64 `json:"avg_price"`
	TotalInvested  float64 `json:"total_invested"`
	CurrentPrice   float64 `json:"current_price"`
	CurrentValue   float64 `json:"current_value"`
	ProfitLoss     float64 `json:"profit_loss"`
	ProfitPercent  float64 `json:"profit_percent"`
	PriceAvailable bool    `json:"price_available"`
}

// PortfolioValuation son los totales de un portafolio valuado en vivo.
type PortfolioValuation struct {
	TotalCurrentValue float64            `json:"total_current_value"`
	TotalInvested     float64            `json:"total_invested"`
	TotalProfit       float64            `json:"total_profit"`
	ProfitPercentage  float64            `json:"profit_percentage"`
	Holdings          []HoldingValuation `json:"holdings"`
}
