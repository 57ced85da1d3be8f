package routes

import (
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.Engine) {
	router.POST("/signup", middleware.Signup)
	router.POST("/login", middleware.Login)

	// Configurar ruta de logout con opciones
	router.OPTIONS("/logout", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "http://localhost:3000")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Status(200)
	})
	router.POST("/logout", middleware.AuthMiddleware(), middleware.Logout)

	// Webhook de sincronización del directorio de usuarios con Clerk
	router.POST("/webhooks/clerk", middleware.ClerkWebhookHandler)

	// Catálogo público de planes
	router.GET("/plans", middleware.GetPlans)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.PUT("/users", middleware.UpdateUser)
		protected.DELETE("/users", middleware.DeleteUser)

		protected.POST("/transactions", middleware.CreateTransaction)
		protected.GET("/transactions", middleware.GetUserTransactions)
		protected.GET("/transactions/:id", middleware.GetTransactionDetails)
		protected.PUT("/transactions/:id", middleware.UpdateTransaction)
		protected.DELETE("/transactions/:id", middleware.DeleteTransaction)

		protected.POST("/copytrades", middleware.CreatePurchase)
		protected.GET("/copytrades", middleware.GetUserPurchases)
		protected.GET("/copytrades/:id", middleware.GetPurchaseDetails)
		protected.DELETE("/copytrades/:id", middleware.CancelPurchase)

		protected.GET("/holdings", middleware.GetHoldings)
		protected.GET("/current-balance", middleware.GetCurrentBalance)
	}

	// Configurar opciones para rutas de administración
	router.OPTIONS("/admin/*path", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "http://localhost:3000")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Admin-Key")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Status(200)
	})

	// Rutas de admin
	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuth())
	{
		admin.GET("/users", middleware.GetUsers)
		admin.GET("/users/:id", middleware.GetUser)
		admin.DELETE("/users/:id", middleware.DeleteUserByAdmin)
		admin.GET("/users/email/:email", middleware.GetUserByEmail)
		admin.POST("/users/:id/recalculate-balance", middleware.RecalculateBalance)

		admin.GET("/transactions/pending", middleware.GetPendingTransactions)
		admin.POST("/transactions/:id/approve", middleware.ApproveTransaction)
		admin.POST("/transactions/:id/reject", middleware.RejectTransaction)

		admin.GET("/plans", middleware.GetAllPlans)
		admin.POST("/plans", middleware.CreatePlan)
		admin.PUT("/plans/:id", middleware.UpdatePlan)
		admin.DELETE("/plans/:id", middleware.DeletePlan)

		admin.POST("/copytrades/:id/approve", middleware.ApprovePurchase)
		admin.POST("/copytrades/:id/complete", middleware.CompletePurchase)

		admin.POST("/simulation/tick", middleware.RunSimulationTick)
		admin.POST("/simulation/completions", middleware.RunCompletions)
		admin.POST("/cleanup", middleware.RunCleanup)
	}

	router.POST("/request-reset-password", middleware.RequestResetPassword)
	router.POST("/reset-password", middleware.ResetPassword)
}
