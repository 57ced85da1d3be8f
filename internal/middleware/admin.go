package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// AdminAuth protege las rutas administrativas: la cola de aprobaciones, el
// catálogo de planes y los disparadores de simulación y limpieza. La clave
// viaja en el encabezado Admin-Key. Si ADMIN_SECRET_KEY no está configurada,
// todas las rutas administrativas quedan cerradas.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		secretKey := os.Getenv("ADMIN_SECRET_KEY")
		if secretKey == "" || c.GetHeader("Admin-Key") != secretKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Acceso no autorizado"})
			c.Abort()
			return
		}
		c.Next()
	}
}
