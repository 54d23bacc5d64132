package mail

import (
	"fmt"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/didierkasongo/ndaku/internal/pkg/env"
)

// Bare address: smtp.SendMail passes the sender straight to MAIL FROM.
const defaultSender = "no-reply@ndaku.cd"

// SendMail delivers an HTML mail through the configured SMTP relay. Account
// activation is the only sender today, always from a goroutine, so failures
// are logged here rather than surfaced to the visitor.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", defaultSender)

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	msg := buildMessage(sender, to, subject, body)

	if err := smtp.SendMail(addr, auth, sender, []string{to}, msg); err != nil {
		log.Errorf("SMTP send to %s via %s failed: %v", to, addr, err)
		return err
	}
	log.Infof("Mail sent to %s via %s", to, addr)
	return nil
}

// buildMessage assembles the RFC 5322 envelope with an HTML body; activation
// mails carry French text, so the charset is explicit.
func buildMessage(sender, to, subject, body string) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)
}
