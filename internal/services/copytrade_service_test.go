package services

import (
	"testing"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testStack) addPlan(t *testing.T, plan *models.CopytradePlan) *models.CopytradePlan {
	t.Helper()
	if plan.Name == "" {
		plan.Name = "Plan de prueba"
	}
	plan.Active = true
	require.NoError(t, s.plans.Create(plan))
	return plan
}

func TestCrearCompraValidaLimites(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	stack.deposit(t, "u1", "BTC", 3) // 6000 USD
	svc := stack.copytrade()

	plan := stack.addPlan(t, &models.CopytradePlan{
		MinInvestment: 1000,
		MaxInvestment: 5000,
		RoiMin:        5,
		RoiMax:        12,
		Risk:          models.RiskLow,
		DurationDays:  30,
	})

	// Por debajo del mínimo del plan
	_, err := svc.CreatePurchase("u1", plan.ID, 500)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// Por encima del máximo del plan
	_, err = svc.CreatePurchase("u1", plan.ID, 6000)
	require.ErrorAs(t, err, &validationErr)

	purchase, err := svc.CreatePurchase("u1", plan.ID, 2000)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusPending, purchase.Status)
	assert.Equal(t, plan.ID, purchase.PlanID)
	// La foto del plan viaja con la compra
	assert.Equal(t, models.RiskLow, purchase.Risk)
	assert.InDelta(t, 5, purchase.RoiMin, 1e-8)
	assert.Equal(t, 30, purchase.DurationDays)
}

func TestCrearCompraExigeBalance(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	stack.deposit(t, "u1", "BTC", 1) // 2000 USD
	svc := stack.copytrade()

	plan := stack.addPlan(t, &models.CopytradePlan{
		MinInvestment: 3000,
		RoiMin:        5,
		RoiMax:        12,
		Risk:          models.RiskMedium,
		DurationDays:  30,
	})

	// El balance no cubre ni el mínimo del plan
	_, err := svc.CreatePurchase("u1", plan.ID, 3000)
	var fundsErr *models.InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.InDelta(t, 3000, fundsErr.Required, 1e-8)
	assert.InDelta(t, 2000, fundsErr.Available, 1e-8)
	assert.InDelta(t, 1000, fundsErr.Deficit, 1e-8)
}

func TestAprobarCompraFondeaMayorPrimero(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000, "ETH": 100})
	stack.addUser(t, "u1")
	stack.deposit(t, "u1", "BTC", 1.5) // 3000 USD
	stack.deposit(t, "u1", "ETH", 10)  // 1000 USD
	svc := stack.copytrade()

	plan := stack.addPlan(t, &models.CopytradePlan{
		MinInvestment: 1000,
		RoiMin:        5,
		RoiMax:        12,
		Risk:          models.RiskLow,
		DurationDays:  10,
	})

	purchase, err := svc.CreatePurchase("u1", plan.ID, 3500)
	require.NoError(t, err)

	approved, err := svc.ApprovePurchase(purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusActive, approved.Status)
	require.NotNil(t, approved.StartDate)
	require.NotNil(t, approved.EndDate)
	assert.InDelta(t, 10*24*time.Hour.Hours(), approved.EndDate.Sub(*approved.StartDate).Hours(), 0.01)
	assert.InDelta(t, 3500, approved.CurrentValue, 1e-8)

	// BTC (3000) se liquidó entero; de ETH quedaron 500 USD → 5 unidades
	_, err = stack.portfolio.GetHolding("u1", "BTC")
	assert.ErrorIs(t, err, models.ErrHoldingNotFound)

	eth, err := stack.portfolio.GetHolding("u1", "ETH")
	require.NoError(t, err)
	assert.InDelta(t, 5, eth.Amount, 1e-8)

	// El balance quedó reconciliado con lo que resta en el portafolio
	balance, err := stack.balances.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 500, balance, 1e-8)
}

func TestAprobarCompraDosVeces(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	stack.deposit(t, "u1", "BTC", 2)
	svc := stack.copytrade()

	plan := stack.addPlan(t, &models.CopytradePlan{
		MinInvestment: 1000, RoiMin: 5, RoiMax: 12, Risk: models.RiskLow, DurationDays: 10,
	})
	purchase, err := svc.CreatePurchase("u1", plan.ID, 2000)
	require.NoError(t, err)

	_, err = svc.ApprovePurchase(purchase.ID)
	require.NoError(t, err)

	_, err = svc.ApprovePurchase(purchase.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyApproved)

	// No se debitó dos veces
	balance, err := stack.balances.GetBalance("u1")
	require.NoError(t, err)
	assert.InDelta(t, 2000, balance, 1e-8)
}

func TestAprobarCompraSinPortafolioSuficiente(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	stack.deposit(t, "u1", "BTC", 2) // 4000 USD
	svc := stack.copytrade()

	plan := stack.addPlan(t, &models.CopytradePlan{
		MinInvestment: 1000, RoiMin: 5, RoiMax: 12, Risk: models.RiskLow, DurationDays: 10,
	})
	purchase, err := svc.CreatePurchase("u1", plan.ID, 4000)
	require.NoError(t, err)

	// El precio cae entre la creación y la aprobación: el portafolio ya no
	// cubre el monto
	stack.oracle.prices["BTC"] = 1500

	_, err = svc.ApprovePurchase(purchase.ID)
	var portfolioErr *models.InsufficientPortfolioValueError
	require.ErrorAs(t, err, &portfolioErr)
	assert.InDelta(t, 4000, portfolioErr.Required, 1e-8)
	assert.InDelta(t, 3000, portfolioErr.Available, 1e-8)

	stored, err := svc.GetPurchase(purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusPending, stored.Status)
}

func TestCancelarSoloPendientes(t *testing.T) {
	stack := newTestStack(t, map[string]float64{"BTC": 2000})
	stack.addUser(t, "u1")
	stack.deposit(t, "u1", "BTC", 2)
	svc := stack.copytrade()

	plan := stack.addPlan(t, &models.CopytradePlan{
		MinInvestment: 1000, RoiMin: 5, RoiMax: 12, Risk: models.RiskLow, DurationDays: 10,
	})
	purchase, err := svc.CreatePurchase("u1", plan.ID, 2000)
	require.NoError(t, err)

	require.NoError(t, svc.CancelPurchase(purchase.ID))

	stored, err := svc.GetPurchase(purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusCancelled, stored.Status)

	// Una cancelada no puede aprobarse
	_, err = svc.ApprovePurchase(purchase.ID)
	assert.Error(t, err)
}
