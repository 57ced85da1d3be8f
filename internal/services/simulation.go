package services

import (
	"database/sql"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/repository"
)

// StableTicker es el activo con el que se acredita el pago de una compra
// liquidada: vale 1:1 contra USD, así el valor final entra al portafolio sin
// depender del precio de ningún activo volátil.
const StableTicker = "USDT"

// RunStats resume una corrida de tarea periódica, para los logs y para los
// disparos manuales del administrador.
type RunStats struct {
	Processed int           `json:"processed"`
	Completed int           `json:"completed"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

// SimulationEngine aplica la evolución horaria de las compras activas y las
// liquida de forma determinística cuando vence su ventana.
type SimulationEngine struct {
	db        *sql.DB
	purchases *repository.CopytradeRepository
	balances  *repository.BalanceRepository
	portfolio *repository.PortfolioRepository
	users     *repository.UserRepository

	mutex sync.Mutex
	rnd   *rand.Rand
}

// NewSimulationEngine crea el motor de simulación.
func NewSimulationEngine(
	db *sql.DB,
	purchases *repository.CopytradeRepository,
	balances *repository.BalanceRepository,
	portfolio *repository.PortfolioRepository,
	users *repository.UserRepository,
) *SimulationEngine {
	return &SimulationEngine{
		db:        db,
		purchases: purchases,
		balances:  balances,
		portfolio: portfolio,
		users:     users,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// nextDelta genera el delta del tick para una compra. El generador se
// comparte entre goroutines, de ahí el mutex.
func (e *SimulationEngine) nextDelta(p *models.CopytradePurchase, now time.Time) float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return models.SimulationDelta(p.Progress(now), p.RoiMin, p.RoiMax, p.DurationDays, p.Risk, e.rnd)
}

// UpdateActive aplica un tick de simulación a todas las compras activas cuya
// ventana sigue abierta. Un error en una compra no frena a las demás.
func (e *SimulationEngine) UpdateActive() RunStats {
	start := time.Now()
	stats := RunStats{}

	purchases, err := e.purchases.GetActive()
	if err != nil {
		log.Printf("Error al obtener compras activas para el tick de simulación: %v", err)
		stats.Errors++
		stats.Duration = time.Since(start)
		return stats
	}

	now := time.Now()
	for i := range purchases {
		p := &purchases[i]
		if p.Expired(now) {
			// Las vencidas las liquida el barrido de completación
			continue
		}

		stats.Processed++
		p.ApplyTick(e.nextDelta(p, now))
		if err := e.purchases.UpdateValue(p); err != nil {
			log.Printf("Error al persistir el tick de la compra %s: %v", p.ID, err)
			stats.Errors++
		}
	}

	stats.Duration = time.Since(start)
	log.Printf("Tick de simulación: %d compras actualizadas, %d errores en %v",
		stats.Processed, stats.Errors, stats.Duration)
	return stats
}

// CompleteExpired liquida todas las compras activas cuya ventana venció. Cada
// compra se liquida en su propia transacción: un error se registra y se
// cuenta, y el barrido continúa con las demás.
func (e *SimulationEngine) CompleteExpired() RunStats {
	start := time.Now()
	stats := RunStats{}

	now := time.Now()
	purchases, err := e.purchases.GetActiveExpired(now)
	if err != nil {
		log.Printf("Error al obtener compras vencidas: %v", err)
		stats.Errors++
		stats.Duration = time.Since(start)
		return stats
	}

	for i := range purchases {
		stats.Processed++
		if err := e.completeOne(&purchases[i], now); err != nil {
			log.Printf("Error al liquidar la compra %s: %v", purchases[i].ID, err)
			stats.Errors++
			continue
		}
		stats.Completed++
	}

	stats.Duration = time.Since(start)
	if stats.Processed > 0 {
		log.Printf("Barrido de liquidación: %d/%d compras liquidadas, %d errores en %v",
			stats.Completed, stats.Processed, stats.Errors, stats.Duration)
	}
	return stats
}

// CompletePurchase liquida una compra activa de forma manual, sin esperar al
// vencimiento. La fecha de fin se adelanta al momento de la liquidación.
func (e *SimulationEngine) CompletePurchase(purchaseID string) (*models.CopytradePurchase, error) {
	p, err := e.purchases.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case models.PurchaseStatusCompleted:
		return nil, models.ErrAlreadyCompleted
	case models.PurchaseStatusPending, models.PurchaseStatusCancelled:
		return nil, &models.ValidationError{Field: "status", Reason: "solo las compras activas pueden liquidarse"}
	}

	now := time.Now()
	if err := e.completeOne(p, now); err != nil {
		return nil, err
	}
	return p, nil
}

// completeOne resuelve el valor final determinístico de la compra y acredita
// el pago al portafolio del dueño como activo estable, todo en una
// transacción.
func (e *SimulationEngine) completeOne(p *models.CopytradePurchase, now time.Time) error {
	finalValue := models.ResolveFinalValue(p.InvestedUsd, p.RoiMin, p.RoiMax, p.Risk)

	endDate := now
	if p.EndDate != nil && p.EndDate.Before(now) {
		endDate = *p.EndDate
	}
	p.CurrentValue = finalValue
	p.EndDate = &endDate
	p.RecomputeProfit()

	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// La guarda sobre status='active' hace idempotente la liquidación
	if err := e.purchases.Complete(tx, p); err != nil {
		return err
	}

	// El pago vuelve como activo estable 1:1, cantidad = valor en USD
	if err := e.balances.AddFunds(tx, p.UserID, StableTicker, finalValue, finalValue); err != nil {
		return err
	}

	if _, err := e.portfolio.ReconcileBalance(tx, p.UserID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("Compra %s liquidada: %.2f USD invertidos → %.2f USD finales (%s)",
		p.ID, p.InvestedUsd, finalValue, p.Risk)

	go e.notifyCompleted(p)
	return nil
}

func (e *SimulationEngine) notifyCompleted(p *models.CopytradePurchase) {
	user, err := e.users.GetUserById(p.UserID)
	if err != nil {
		log.Printf("No se pudo notificar la liquidación de %s: %v", p.ID, err)
		return
	}
	if err := SendTradeCompletedEmail(user.Email, p); err != nil {
		log.Printf("Error al enviar notificación de liquidación de %s: %v", p.ID, err)
	}
}
