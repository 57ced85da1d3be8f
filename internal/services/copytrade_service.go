package services

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/repository"
)

// FundingLeg es un débito puntual del plan de fondeo de una compra: cuánto de
// qué activo se liquida y a qué valor en USD.
type FundingLeg struct {
	Ticker      string  `json:"ticker"`
	AssetAmount float64 `json:"asset_amount"`
	UsdValue    float64 `json:"usd_value"`
	Full        bool    `json:"full"`
}

// BuildFundingPlan arma el plan de débitos para fondear un monto en USD desde
// un portafolio valuado: se liquidan tenencias completas de mayor a menor
// valor actual y, si la última no hace falta entera, se debita la fracción
// exacta (restante / precio). Las líneas sin precio disponible no participan.
func BuildFundingPlan(holdings []models.HoldingValuation, requiredUsd float64) ([]FundingLeg, error) {
	priced := make([]models.HoldingValuation, 0, len(holdings))
	available := 0.0
	for _, h := range holdings {
		if h.PriceAvailable && h.CurrentValue > 0 {
			priced = append(priced, h)
			available += h.CurrentValue
		}
	}

	if available+models.DustThreshold < requiredUsd {
		return nil, models.NewInsufficientPortfolioValue(requiredUsd, available)
	}

	sort.Slice(priced, func(i, j int) bool {
		return priced[i].CurrentValue > priced[j].CurrentValue
	})

	legs := []FundingLeg{}
	remaining := requiredUsd

	for _, h := range priced {
		if remaining < models.DustThreshold {
			break
		}

		if h.CurrentValue <= remaining+models.DustThreshold {
			// La tenencia entera no alcanza (o alcanza justo): se liquida completa
			legs = append(legs, FundingLeg{
				Ticker:      h.Ticker,
				AssetAmount: h.Amount,
				UsdValue:    h.CurrentValue,
				Full:        true,
			})
			remaining = models.Round8(remaining - h.CurrentValue)
			continue
		}

		// Débito fraccional de la última tenencia
		legs = append(legs, FundingLeg{
			Ticker:      h.Ticker,
			AssetAmount: models.Round8(remaining / h.CurrentPrice),
			UsdValue:    models.Round8(remaining),
		})
		remaining = 0
		break
	}

	if remaining > models.DustThreshold {
		return nil, models.NewInsufficientPortfolioValue(requiredUsd, available)
	}

	return legs, nil
}

// CopytradeService orquesta el ciclo de vida de las compras de copytrade:
// creación contra el catálogo, aprobación con fondeo desde el portafolio, y
// las consultas de lectura.
type CopytradeService struct {
	db        *sql.DB
	plans     *repository.PlanRepository
	purchases *repository.CopytradeRepository
	portfolio *repository.PortfolioRepository
	balances  *repository.BalanceRepository
}

// NewCopytradeService crea el servicio de copytrade.
func NewCopytradeService(
	db *sql.DB,
	plans *repository.PlanRepository,
	purchases *repository.CopytradeRepository,
	portfolio *repository.PortfolioRepository,
	balances *repository.BalanceRepository,
) *CopytradeService {
	return &CopytradeService{
		db:        db,
		plans:     plans,
		purchases: purchases,
		portfolio: portfolio,
		balances:  balances,
	}
}

// CreatePurchase crea una compra pendiente contra un plan del catálogo. Copia
// la foto del plan y valida el monto contra sus límites y contra el balance
// del usuario; no mueve fondos.
func (s *CopytradeService) CreatePurchase(userID, planID string, investedUsd float64) (*models.CopytradePurchase, error) {
	plan, err := s.plans.GetByID(planID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, models.ErrPlanNotFound
	}

	if investedUsd < plan.MinInvestment {
		return nil, &models.ValidationError{
			Field:  "invested_usd",
			Reason: fmt.Sprintf("la inversión mínima del plan %s es %.2f USD", plan.Name, plan.MinInvestment),
		}
	}
	if plan.MaxInvestment > 0 && investedUsd > plan.MaxInvestment {
		return nil, &models.ValidationError{
			Field:  "invested_usd",
			Reason: fmt.Sprintf("la inversión máxima del plan %s es %.2f USD", plan.Name, plan.MaxInvestment),
		}
	}

	// El balance debe cubrir al menos el mínimo del plan aunque se invierta más
	required := investedUsd
	if plan.MinInvestment > required {
		required = plan.MinInvestment
	}
	balance, err := s.balances.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	if balance+models.DustThreshold < required {
		return nil, models.NewInsufficientFunds(required, balance)
	}

	purchase := &models.CopytradePurchase{
		UserID:        userID,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		MinInvestment: plan.MinInvestment,
		MaxInvestment: plan.MaxInvestment,
		Risk:          plan.Risk,
		RoiMin:        plan.RoiMin,
		RoiMax:        plan.RoiMax,
		DurationDays:  plan.DurationDays,
		InvestedUsd:   models.Round8(investedUsd),
	}

	if err := s.purchases.Create(purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// ApprovePurchase fondea y activa una compra pendiente. El monto invertido se
// liquida desde el portafolio con el plan de fondeo de mayor a menor valor;
// los débitos, la activación y la reconciliación del balance ocurren dentro
// de una única transacción.
func (s *CopytradeService) ApprovePurchase(purchaseID string) (*models.CopytradePurchase, error) {
	p, err := s.purchases.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case models.PurchaseStatusActive:
		return nil, models.ErrAlreadyApproved
	case models.PurchaseStatusCompleted:
		return nil, models.ErrAlreadyCompleted
	case models.PurchaseStatusCancelled:
		return nil, models.ErrPurchaseNotFound
	}

	// Valuación y plan de fondeo fuera de la transacción: son de lectura
	valuation, err := s.portfolio.Valuate(p.UserID)
	if err != nil {
		return nil, err
	}
	legs, err := BuildFundingPlan(valuation.Holdings, p.InvestedUsd)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	endDate := now.Add(time.Duration(p.DurationDays) * 24 * time.Hour)
	p.StartDate = &now
	p.EndDate = &endDate
	p.CurrentValue = p.InvestedUsd
	p.RecomputeProfit()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, leg := range legs {
		if err := s.portfolio.Debit(tx, p.UserID, leg.Ticker, leg.AssetAmount); err != nil {
			return nil, err
		}
	}

	if err := s.purchases.Activate(tx, p); err != nil {
		return nil, err
	}

	if _, err := s.portfolio.ReconcileBalance(tx, p.UserID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("Compra %s activada: %.2f USD fondeados con %d débitos", p.ID, p.InvestedUsd, len(legs))
	return p, nil
}

// CancelPurchase cancela una compra que todavía no fue fondeada.
func (s *CopytradeService) CancelPurchase(purchaseID string) error {
	p, err := s.purchases.GetByID(purchaseID)
	if err != nil {
		return err
	}
	if p.Status != models.PurchaseStatusPending {
		return &models.ValidationError{Field: "status", Reason: "solo las compras pendientes pueden cancelarse"}
	}
	return s.purchases.Cancel(purchaseID)
}

// GetPurchase devuelve una compra puntual.
func (s *CopytradeService) GetPurchase(purchaseID string) (*models.CopytradePurchase, error) {
	return s.purchases.GetByID(purchaseID)
}

// GetUserPurchases devuelve las compras de un usuario.
func (s *CopytradeService) GetUserPurchases(userID string) ([]models.CopytradePurchase, error) {
	return s.purchases.GetByUser(userID)
}
