package middleware

import (
	"errors"
	"net/http"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/database"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/repository"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/services"
	"github.com/gin-gonic/gin"
)

// Repositorios y servicios compartidos por todos los handlers. Se inicializan
// una vez con InitCore, después de abrir la base de datos.
var (
	userRepo      *repository.UserRepository
	portfolioRepo *repository.PortfolioRepository
	balanceRepo   *repository.BalanceRepository
	planRepo      *repository.PlanRepository

	txWorkflow       *services.TransactionWorkflow
	copytradeService *services.CopytradeService
	simulationEngine *services.SimulationEngine
	cleanupService   *services.CleanupService
)

// InitCore inicializa los repositorios y servicios de los handlers.
func InitCore() {
	db := database.DB
	oracle := services.NewPriceOracle()

	userRepo = repository.NewUserRepository()
	portfolioRepo = repository.NewPortfolioRepository(db, oracle)
	balanceRepo = repository.NewBalanceRepository(db, portfolioRepo)
	planRepo = repository.NewPlanRepository(db)

	transactionRepo := repository.NewTransactionRepository(db)
	purchaseRepo := repository.NewCopytradeRepository(db)

	txWorkflow = services.NewTransactionWorkflow(db, transactionRepo, balanceRepo, portfolioRepo, userRepo, oracle)
	copytradeService = services.NewCopytradeService(db, planRepo, purchaseRepo, portfolioRepo, balanceRepo)
	simulationEngine = services.NewSimulationEngine(db, purchaseRepo, balanceRepo, portfolioRepo, userRepo)
	cleanupService = services.NewCleanupService(db)
}

// SimulationEngine expone el motor de simulación para registrarlo en el
// scheduler desde main.
func SimulationEngine() *services.SimulationEngine {
	return simulationEngine
}

// CleanupService expone el servicio de limpieza para el scheduler.
func CleanupService() *services.CleanupService {
	return cleanupService
}

// respondError traduce los errores de negocio a códigos HTTP. Los errores de
// insuficiencia llevan siempre el requerido, el disponible y el déficit.
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var fundsErr *models.InsufficientFundsError
	var tokenErr *models.InsufficientTokenBalanceError
	var portfolioErr *models.InsufficientPortfolioValueError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})

	case errors.As(err, &fundsErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     fundsErr.Error(),
			"required":  fundsErr.Required,
			"available": fundsErr.Available,
			"deficit":   fundsErr.Deficit,
		})

	case errors.As(err, &tokenErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     tokenErr.Error(),
			"ticker":    tokenErr.Ticker,
			"required":  tokenErr.Required,
			"available": tokenErr.Available,
			"deficit":   tokenErr.Deficit,
		})

	case errors.As(err, &portfolioErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     portfolioErr.Error(),
			"required":  portfolioErr.Required,
			"available": portfolioErr.Available,
			"deficit":   portfolioErr.Deficit,
		})

	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrTransactionNotFound),
		errors.Is(err, models.ErrPlanNotFound),
		errors.Is(err, models.ErrPurchaseNotFound),
		errors.Is(err, models.ErrHoldingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrAlreadyApproved),
		errors.Is(err, models.ErrAlreadyCompleted),
		errors.Is(err, models.ErrImmutableApproved),
		errors.Is(err, models.ErrImmutableRejected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrPriceNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrPriceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
