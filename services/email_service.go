package services

import (
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// ErrSMTPNotConfigured is returned when no SMTP credentials are set
var ErrSMTPNotConfigured = fmt.Errorf("SMTP not configured")

// EmailService handles sending emails via SMTP
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailService creates a new email service instance
func NewEmailService() *EmailService {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	return &EmailService{
		host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		port:     port,
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     getEnvOrDefault("SMTP_FROM", "noreply@smeducacional.com.br"),
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

// SendWelcomeEmail confirms a course purchase and links to the course
func (e *EmailService) SendWelcomeEmail(toEmail, userName, courseTitle, courseURL string) error {
	if !e.IsConfigured() {
		log.Warnw("[Email] SMTP not configured, welcome email skipped", "to", toEmail, "course", courseTitle)
		return ErrSMTPNotConfigured
	}

	subject := fmt.Sprintf("Bem-vindo ao curso %s", courseTitle)
	return e.sendEmail(toEmail, subject, buildWelcomeEmailBody(userName, courseTitle, courseURL))
}

// buildWelcomeEmailBody creates the HTML email body for a purchase confirmation
func buildWelcomeEmailBody(userName, courseTitle, courseURL string) string {
	if userName == "" {
		userName = "aluno"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Bem-vindo</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; background-color: #1d4ed8; color: #ffffff !important; padding: 14px 28px; text-decoration: none; border-radius: 6px; font-weight: 600; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; text-align: center; }
    </style>
</head>
<body>
    <h2>Olá %s,</h2>
    <p>Seu pagamento foi confirmado e você já tem acesso ao curso <strong>%s</strong>.</p>
    <p style="text-align: center;">
        <a href="%s" class="button">Acessar o curso</a>
    </p>
    <div class="footer">SM Educacional</div>
</body>
</html>`, html.EscapeString(userName), html.EscapeString(courseTitle), html.EscapeString(courseURL))
}

// sendEmail sends an email using SMTP with STARTTLS
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	headers := []string{
		"From: SM Educacional <" + e.from + ">",
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	var message strings.Builder
	for _, h := range headers {
		message.WriteString(h + "\r\n")
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(smtp.PlainAuth("", e.username, e.password, e.host)); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	_ = conn.Quit()

	log.Infow("[Email] email sent", "to", to, "subject", subject)
	return nil
}
