package models

import (
	"math/rand"
	"time"
)

// RiskLevel es el nivel de riesgo de un plan de copytrade.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Volatility devuelve la volatilidad por tick horario según el riesgo.
func (r RiskLevel) Volatility() float64 {
	switch r {
	case RiskMedium:
		return 0.006
	case RiskHigh:
		return 0.010
	default:
		return 0.003
	}
}

// TargetRoi resuelve el ROI final (en porcentaje) según el nivel de riesgo.
// El mapeo es asimétrico a propósito: low y high resuelven a roiMin y solo
// medium resuelve a roiMax. Así lo liquida producción desde el primer día.
func (r RiskLevel) TargetRoi(roiMin, roiMax float64) float64 {
	if r == RiskMedium {
		return roiMax
	}
	return roiMin
}

// PurchaseStatus es el estado de una compra de copytrade.
// pending (sin fondear) → active (fondeada) → completed (liquidada).
// completed y cancelled son terminales.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusActive    PurchaseStatus = "active"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

func (s PurchaseStatus) IsFinal() bool {
	return s == PurchaseStatusCompleted || s == PurchaseStatusCancelled
}

func (s PurchaseStatus) CanTransitionTo(next PurchaseStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case PurchaseStatusPending:
		return next == PurchaseStatusActive || next == PurchaseStatusCancelled
	case PurchaseStatusActive:
		return next == PurchaseStatusCompleted || next == PurchaseStatusCancelled
	}
	return false
}

// CopytradePlan es una entrada del catálogo de planes. El catálogo es de solo
// lectura para el core: se consume al crear una compra.
type CopytradePlan struct {
	ID            string    `json:"id"`
	Name          string    `json:"name" binding:"required"`
	Trader        string    `json:"trader"`
	Description   string    `json:"description,omitempty"`
	MinInvestment float64   `json:"min_investment" binding:"required,gt=0"`
	MaxInvestment float64   `json:"max_investment"`
	RoiMin        float64   `json:"roi_min"`
	RoiMax        float64   `json:"roi_max"`
	Risk          RiskLevel `json:"risk" binding:"required,oneof=low medium high"`
	DurationDays  int       `json:"duration_days" binding:"required,gt=0"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CopytradePurchase es la foto de un plan al momento de la compra. Los campos
// del plan se copian para que cambios posteriores del catálogo no alteren
// compras ya emitidas.
type CopytradePurchase struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	PlanID        string         `json:"plan_id"`
	PlanName      string         `json:"plan_name"`
	MinInvestment float64        `json:"min_investment"`
	MaxInvestment float64        `json:"max_investment"`
	Risk          RiskLevel      `json:"risk"`
	RoiMin        float64        `json:"roi_min"`
	RoiMax        float64        `json:"roi_max"`
	DurationDays  int            `json:"duration_days"`
	InvestedUsd   float64        `json:"invested_usd"`
	CurrentValue  float64        `json:"current_value"`
	ProfitLoss    float64        `json:"profit_loss"`
	IsProfit      bool           `json:"is_profit"`
	Status        PurchaseStatus `json:"status"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// RecomputeProfit recalcula ganancia/pérdida a partir del valor actual. La
// derivación vive acá, no en la capa de almacenamiento: el servicio la llama
// justo antes de cada persistencia.
func (p *CopytradePurchase) RecomputeProfit() {
	p.ProfitLoss = Round8(p.CurrentValue - p.InvestedUsd)
	p.IsProfit = p.ProfitLoss >= 0
}

// Progress devuelve el avance de la ventana de simulación en [0, 1].
func (p *CopytradePurchase) Progress(now time.Time) float64 {
	if p.StartDate == nil || p.EndDate == nil || !p.EndDate.After(*p.StartDate) {
		return 0
	}
	progress := now.Sub(*p.StartDate).Seconds() / p.EndDate.Sub(*p.StartDate).Seconds()
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// Expired indica si la ventana de la compra ya venció.
func (p *CopytradePurchase) Expired(now time.Time) bool {
	return p.EndDate != nil && !p.EndDate.After(now)
}

// ResolveFinalValue calcula el valor final determinístico de una compra:
// investedUsd * (1 + roi/100), con el ROI resuelto por nivel de riesgo.
func ResolveFinalValue(investedUsd, roiMin, roiMax float64, risk RiskLevel) float64 {
	roi := risk.TargetRoi(roiMin, roiMax)
	return Round8(investedUsd * (1 + roi/100))
}

// SimulationDelta calcula la variación fraccional de un tick horario: ruido
// uniforme según la volatilidad del riesgo más una deriva proporcional al
// avance hacia el ROI objetivo, acotada a ±1%.
func SimulationDelta(progress, roiMin, roiMax float64, durationDays int, risk RiskLevel, rnd *rand.Rand) float64 {
	volatility := risk.Volatility()
	noise := (rnd.Float64()*2 - 1) * volatility

	targetRoi := risk.TargetRoi(roiMin, roiMax)
	totalHours := float64(durationDays) * 24
	drift := 0.0
	if totalHours > 0 {
		drift = progress * (targetRoi / totalHours) * 0.5
	}

	delta := noise + drift
	if delta > 0.01 {
		delta = 0.01
	}
	if delta < -0.01 {
		delta = -0.01
	}
	return delta
}

// ApplyTick aplica un delta de simulación al valor actual de la compra y
// recalcula la ganancia. El valor nunca baja de cero.
func (p *CopytradePurchase) ApplyTick(delta float64) {
	value := p.CurrentValue * (1 + delta)
	if value < 0 {
		value = 0
	}
	p.CurrentValue = Round8(value)
	p.RecomputeProfit()
}
