package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/gin-gonic/gin"
)

// CreateTransaction crea una solicitud de depósito o retiro para el usuario
// autenticado. La solicitud queda pendiente hasta que un administrador la
// resuelva.
func CreateTransaction(c *gin.Context) {
	var transaction models.Transaction
	if err := c.ShouldBindJSON(&transaction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transaction.UserID = c.GetString("userId")

	if err := txWorkflow.Request(&transaction); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Solicitud creada, pendiente de aprobación",
		"transaction": transaction,
	})
}

// GetUserTransactions obtiene todas las solicitudes del usuario autenticado.
func GetUserTransactions(c *gin.Context) {
	transactions, err := txWorkflow.GetByUser(c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// GetTransactionDetails obtiene una solicitud puntual del usuario autenticado.
func GetTransactionDetails(c *gin.Context) {
	transaction, err := txWorkflow.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	// Una solicitud ajena no se expone: mismo 404 que una inexistente
	if transaction.UserID != c.GetString("userId") {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrTransactionNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction edita una solicitud pendiente del usuario autenticado.
// El cuerpo es un parche: solo los campos presentes se modifican, así que acá
// no aplican las validaciones de binding de la creación.
func UpdateTransaction(c *gin.Context) {
	var body struct {
		CryptoName string  `json:"crypto_name"`
		Ticker     string  `json:"ticker"`
		Amount     float64 `json:"amount"`
		Type       string  `json:"type"`
		Note       string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := models.Transaction{
		CryptoName: body.CryptoName,
		Ticker:     body.Ticker,
		Amount:     body.Amount,
		Type:       body.Type,
		Note:       body.Note,
	}

	existing, err := txWorkflow.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.UserID != c.GetString("userId") {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrTransactionNotFound.Error()})
		return
	}

	transaction, err := txWorkflow.Update(c.Param("id"), &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Solicitud actualizada", "transaction": transaction})
}

// DeleteTransaction elimina una solicitud pendiente o rechazada del usuario
// autenticado. Las aprobadas son inmutables.
func DeleteTransaction(c *gin.Context) {
	existing, err := txWorkflow.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.UserID != c.GetString("userId") {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrTransactionNotFound.Error()})
		return
	}

	if err := txWorkflow.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Solicitud eliminada"})
}

// GetPendingTransactions devuelve la cola de solicitudes pendientes para el
// administrador, más antigua primero.
func GetPendingTransactions(c *gin.Context) {
	transactions, err := txWorkflow.GetPending()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// ApproveTransaction aprueba una solicitud pendiente: congela el precio del
// momento, mueve los fondos y reconcilia el balance.
func ApproveTransaction(c *gin.Context) {
	var body struct {
		ApprovedBy string `json:"approved_by"`
	}
	c.ShouldBindJSON(&body)
	if body.ApprovedBy == "" {
		body.ApprovedBy = "admin"
	}

	transaction, err := txWorkflow.Approve(c.Param("id"), body.ApprovedBy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Solicitud aprobada", "transaction": transaction})
}

// RejectTransaction rechaza una solicitud pendiente sin mover fondos.
func RejectTransaction(c *gin.Context) {
	var body struct {
		ApprovedBy string `json:"approved_by"`
	}
	c.ShouldBindJSON(&body)
	if body.ApprovedBy == "" {
		body.ApprovedBy = "admin"
	}

	transaction, err := txWorkflow.Reject(c.Param("id"), body.ApprovedBy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Solicitud rechazada", "transaction": transaction})
}
