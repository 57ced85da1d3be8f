package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
)

// sendEmail envía un correo HTML con la configuración SMTP del entorno. Si no
// hay configuración, solo se registra en el log y se simula éxito: las
// notificaciones nunca bloquean una operación de fondos.
func sendEmail(email, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	fromEmail := os.Getenv("FROM_EMAIL")

	if smtpHost == "" || smtpPort == "" || smtpUser == "" || smtpPass == "" {
		log.Printf("Configuración de email no encontrada. Correo para %s: %s", email, subject)
		return nil
	}

	auth := smtp.PlainAuth("", smtpUser, smtpPass, smtpHost)

	message := fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", email, subject, body)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, fromEmail, []string{email}, []byte(message))
	if err != nil {
		log.Printf("Error al enviar email: %v", err)
		return err
	}

	return nil
}

func SendPasswordResetEmail(email, token string) error {
	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Restablecimiento de contraseña</h2>
		<p>Has solicitado restablecer tu contraseña. Utiliza el siguiente token:</p>
		<p><strong>%s</strong></p>
		<p>Si no has solicitado este cambio, puedes ignorar este correo.</p>
	</body>
	</html>
	`, token)

	return sendEmail(email, "Restablecimiento de contraseña", body)
}

// SendTransactionStatusEmail notifica al usuario que su solicitud de depósito
// o retiro fue aprobada o rechazada.
func SendTransactionStatusEmail(email string, t *models.Transaction) error {
	estado := "aprobada"
	if t.Status == models.TransactionStatusRejected {
		estado = "rechazada"
	}

	tipo := "depósito"
	if t.Type == models.TransactionTypeWithdraw {
		tipo = "retiro"
	}

	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Solicitud %s</h2>
		<p>Tu solicitud de %s de %.8f %s fue %s.</p>
		<p>Valor en USD al momento de la resolución: %.2f</p>
	</body>
	</html>
	`, estado, tipo, t.Amount, t.Ticker, estado, t.UsdValueAtApproval)

	return sendEmail(email, fmt.Sprintf("Tu solicitud de %s fue %s", tipo, estado), body)
}

// SendTradeCompletedEmail notifica al usuario que una compra de copytrade fue
// liquidada y su pago acreditado.
func SendTradeCompletedEmail(email string, p *models.CopytradePurchase) error {
	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Operación de copytrade completada</h2>
		<p>Tu inversión de %.2f USD en el plan %s fue liquidada.</p>
		<p>Valor final acreditado: %.2f USD (%+.2f USD)</p>
	</body>
	</html>
	`, p.InvestedUsd, p.PlanName, p.CurrentValue, p.ProfitLoss)

	return sendEmail(email, "Operación de copytrade completada", body)
}
