package middleware

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"github.com/clerk/clerk-sdk-go/v2"
	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
)

var userClient *user.Client

// InitClerk inicializa el cliente de Clerk. Si no hay clave configurada, las
// rutas de Clerk quedan deshabilitadas y el login con JWT propio sigue
// funcionando.
func InitClerk() {
	secretKey := os.Getenv("CLERK_SECRET_KEY")
	if secretKey == "" {
		log.Println("CLERK_SECRET_KEY no está configurada, la integración con Clerk queda deshabilitada")
		return
	}

	clerk.SetKey(secretKey)

	config := &clerk.ClientConfig{}
	config.Key = &secretKey
	userClient = user.NewClient(config)

	log.Println("Clerk inicializado")
}

// ClerkAuthMiddleware valida tokens JWT emitidos por Clerk.
func ClerkAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "La autenticación con Clerk no está disponible"})
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token no proporcionado"})
			c.Abort()
			return
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)

		claims, err := clerkjwt.Verify(c.Request.Context(), &clerkjwt.VerifyParams{
			Token: tokenString,
		})
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
			c.Abort()
			return
		}

		if claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido: no se pudo extraer el ID del usuario"})
			c.Abort()
			return
		}

		c.Set("userId", claims.Subject)
		c.Next()
	}
}

// ClerkWebhookHandler sincroniza el directorio de usuarios con los eventos de
// Clerk. La firma del webhook se verifica con Svix antes de procesar nada.
func ClerkWebhookHandler(c *gin.Context) {
	webhookSecret := os.Getenv("CLERK_WEBHOOK_SECRET")
	if webhookSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook no configurado"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No se pudo leer el cuerpo de la petición"})
		return
	}

	wh, err := svix.NewWebhook(webhookSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo inicializar la verificación del webhook"})
		return
	}

	if err := wh.Verify(body, c.Request.Header); err != nil {
		log.Printf("Firma de webhook inválida: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Firma de webhook inválida"})
		return
	}

	var webhookData map[string]interface{}
	if err := json.Unmarshal(body, &webhookData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payload JSON inválido"})
		return
	}

	eventType, ok := webhookData["type"].(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Falta el tipo de evento"})
		return
	}

	switch eventType {
	case "user.created":
		handleUserCreated(c, webhookData)
	case "user.updated":
		handleUserUpdated(c, webhookData)
	case "user.deleted":
		handleUserDeleted(c, webhookData)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Evento recibido pero no manejado"})
	}
}

func extractClerkUser(webhookData map[string]interface{}) (id, email, name string, ok bool) {
	data, dataOk := webhookData["data"].(map[string]interface{})
	if !dataOk {
		return "", "", "", false
	}

	id, idOk := data["id"].(string)
	if !idOk || id == "" {
		return "", "", "", false
	}

	if emailAddresses, listOk := data["email_addresses"].([]interface{}); listOk {
		for _, emailAddr := range emailAddresses {
			if emailMap, mapOk := emailAddr.(map[string]interface{}); mapOk {
				if addr, addrOk := emailMap["email_address"].(string); addrOk && addr != "" {
					email = addr
					break
				}
			}
		}
	}

	firstName, _ := data["first_name"].(string)
	lastName, _ := data["last_name"].(string)
	name = strings.TrimSpace(firstName + " " + lastName)
	if name == "" && email != "" {
		name = strings.Split(email, "@")[0]
	}

	return id, email, name, true
}

func handleUserCreated(c *gin.Context, webhookData map[string]interface{}) {
	id, email, name, ok := extractClerkUser(webhookData)
	if !ok || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de usuario incompletos en el webhook"})
		return
	}

	newUser := &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Password:  "", // Los usuarios de Clerk no tienen contraseña local
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	}

	if err := userRepo.CreateUser(newUser); err != nil {
		log.Printf("Error al crear usuario desde webhook de Clerk: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo crear el usuario"})
		return
	}

	log.Printf("Usuario creado desde Clerk: %s (%s)", id, email)
	c.JSON(http.StatusOK, gin.H{"message": "Usuario creado"})
}

func handleUserUpdated(c *gin.Context, webhookData map[string]interface{}) {
	id, email, name, ok := extractClerkUser(webhookData)
	if !ok || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de usuario incompletos en el webhook"})
		return
	}

	// Clerk no sabe nada del KYC: se parte del registro actual para no pisar
	// el estado de verificación
	existing, err := userRepo.GetUserById(id)
	if err != nil {
		log.Printf("Error al actualizar usuario desde webhook de Clerk: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
		return
	}

	existing.Email = email
	existing.Name = name

	if err := userRepo.UpdateUser(existing); err != nil {
		log.Printf("Error al actualizar usuario desde webhook de Clerk: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo actualizar el usuario"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Usuario actualizado"})
}

func handleUserDeleted(c *gin.Context, webhookData map[string]interface{}) {
	data, ok := webhookData["data"].(map[string]interface{})
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Estructura de webhook inválida"})
		return
	}

	userID, ok := data["id"].(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Falta el ID del usuario"})
		return
	}

	if err := userRepo.DeleteUser(userID); err != nil {
		log.Printf("Error al eliminar usuario desde webhook de Clerk: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo eliminar el usuario"})
		return
	}

	// Barrer de inmediato las tenencias y solicitudes que quedaron huérfanas
	cleanupService.Run()

	log.Printf("Usuario eliminado desde Clerk: %s", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Usuario eliminado"})
}
