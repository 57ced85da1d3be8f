package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetUsers(c *gin.Context) {
	users, err := userRepo.GetAllUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener usuarios"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
	})
}

func GetUser(c *gin.Context) {
	userId := c.Param("id")

	user, err := userRepo.GetUserById(userId)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

func GetUserByEmail(c *gin.Context) {
	email := c.Param("email")

	user, err := userRepo.GetUserByEmail(email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

func DeleteUserByAdmin(c *gin.Context) {
	userId := c.Param("id")

	if err := userRepo.DeleteUser(userId); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al eliminar usuario"})
		return
	}

	// Los registros que quedaron huérfanos los levanta la limpieza periódica,
	// pero un barrido inmediato deja la base consistente ya mismo
	stats := cleanupService.Run()

	c.JSON(http.StatusOK, gin.H{"message": "Usuario eliminado", "cleanup": stats})
}

// RecalculateBalance fuerza la reconciliación del balance de un usuario desde
// la valuación en vivo de su portafolio.
func RecalculateBalance(c *gin.Context) {
	userId := c.Param("id")

	balance, err := balanceRepo.Reconcile(userId)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Balance reconciliado", "balance": balance})
}

// RunSimulationTick dispara a mano un tick de simulación sobre las compras
// activas.
func RunSimulationTick(c *gin.Context) {
	stats := simulationEngine.UpdateActive()
	c.JSON(http.StatusOK, gin.H{"message": "Tick de simulación ejecutado", "stats": stats})
}

// RunCompletions dispara a mano el barrido de liquidación de compras vencidas.
func RunCompletions(c *gin.Context) {
	stats := simulationEngine.CompleteExpired()
	c.JSON(http.StatusOK, gin.H{"message": "Barrido de liquidación ejecutado", "stats": stats})
}

// RunCleanup dispara a mano la limpieza de registros huérfanos.
func RunCleanup(c *gin.Context) {
	stats := cleanupService.Run()
	c.JSON(http.StatusOK, gin.H{"message": "Limpieza ejecutada", "stats": stats})
}
