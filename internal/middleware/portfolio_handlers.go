package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHoldings devuelve el portafolio del usuario autenticado valuado a precio
// de mercado. Las líneas cuyo precio no está disponible vienen con
// price_available en false.
func GetHoldings(c *gin.Context) {
	valuation, err := portfolioRepo.Valuate(c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, valuation)
}

// GetCurrentBalance devuelve el balance en USD de la cuenta del usuario
// autenticado.
func GetCurrentBalance(c *gin.Context) {
	balance, err := balanceRepo.GetBalance(c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance, "currency": "USD"})
}
