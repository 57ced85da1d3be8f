package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/gin-gonic/gin"
)

// GetPlans devuelve el catálogo de planes activos.
func GetPlans(c *gin.Context) {
	plans, err := planRepo.GetAll(true)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// GetAllPlans devuelve el catálogo completo, incluidos los planes retirados.
func GetAllPlans(c *gin.Context) {
	plans, err := planRepo.GetAll(false)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// CreatePlan agrega un plan al catálogo.
func CreatePlan(c *gin.Context) {
	var plan models.CopytradePlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan.Active = true
	if err := planRepo.Create(&plan); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Plan creado", "plan": plan})
}

// UpdatePlan modifica un plan del catálogo. Las compras ya emitidas llevan su
// propia foto del plan y no se ven afectadas.
func UpdatePlan(c *gin.Context) {
	var plan models.CopytradePlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan.ID = c.Param("id")
	if err := planRepo.Update(&plan); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan actualizado", "plan": plan})
}

// DeletePlan elimina un plan del catálogo.
func DeletePlan(c *gin.Context) {
	if err := planRepo.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan eliminado"})
}

// CreatePurchase crea una compra de copytrade pendiente para el usuario
// autenticado.
func CreatePurchase(c *gin.Context) {
	var body struct {
		PlanID      string  `json:"plan_id" binding:"required"`
		InvestedUsd float64 `json:"invested_usd" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purchase, err := copytradeService.CreatePurchase(c.GetString("userId"), body.PlanID, body.InvestedUsd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Compra creada, pendiente de aprobación",
		"purchase": purchase,
	})
}

// GetUserPurchases devuelve las compras del usuario autenticado.
func GetUserPurchases(c *gin.Context) {
	purchases, err := copytradeService.GetUserPurchases(c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

// GetPurchaseDetails devuelve una compra puntual del usuario autenticado.
func GetPurchaseDetails(c *gin.Context) {
	purchase, err := copytradeService.GetPurchase(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if purchase.UserID != c.GetString("userId") {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrPurchaseNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase": purchase})
}

// CancelPurchase cancela una compra pendiente del usuario autenticado.
func CancelPurchase(c *gin.Context) {
	purchase, err := copytradeService.GetPurchase(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if purchase.UserID != c.GetString("userId") {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrPurchaseNotFound.Error()})
		return
	}

	if err := copytradeService.CancelPurchase(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Compra cancelada"})
}

// ApprovePurchase fondea y activa una compra pendiente. Solo administradores.
func ApprovePurchase(c *gin.Context) {
	purchase, err := copytradeService.ApprovePurchase(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Compra aprobada y fondeada", "purchase": purchase})
}

// CompletePurchase liquida una compra activa sin esperar al vencimiento. Solo
// administradores.
func CompletePurchase(c *gin.Context) {
	purchase, err := simulationEngine.CompletePurchase(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Compra liquidada", "purchase": purchase})
}
