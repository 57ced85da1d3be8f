package main

import (
	"log"
	"os"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/database"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/middleware"
	routes "github.com/AgusMolinaCode/Copytrade_Api.git/internal/server"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Cargar variables de entorno
	if err := godotenv.Load(); err != nil {
		log.Printf("No se pudo cargar el archivo .env: %v", err)
	}

	// Crear el router de Gin
	router := gin.Default()

	// Configurar CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Admin-Key"}
	config.AllowCredentials = true
	config.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(config))

	// Inicializar base de datos
	if err := database.InitDB(); err != nil {
		log.Fatalf("Error al inicializar la base de datos: %v", err)
	}
	defer database.DB.Close()

	// Inicializar repositorios, servicios y la integración con Clerk
	middleware.InitCore()
	middleware.InitClerk()

	// Tareas periódicas: tick horario de simulación, barrido de liquidación y
	// limpieza semanal de huérfanos
	scheduler := services.NewScheduler()
	scheduler.Register("simulation-tick", time.Hour, func() {
		middleware.SimulationEngine().UpdateActive()
	})
	scheduler.Register("completion-sweep", time.Hour, func() {
		middleware.SimulationEngine().CompleteExpired()
	})
	scheduler.Register("orphan-cleanup", 7*24*time.Hour, func() {
		middleware.CleanupService().Run()
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Configurar las rutas
	routes.RegisterRoutes(router)

	// Iniciar el servidor
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Error al iniciar el servidor: %v", err)
	}
}
