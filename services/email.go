package services

import (
	"fmt"

	"fees-module/logger"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	if from == "" {
		from = user
	}
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

// Send delivers an HTML email, optionally attaching files.
// Called after a payment is recorded; failures are logged by the caller
// and never fail the payment itself.
func (m *Mailer) Send(to, subject, body string, attachments ...string) error {
	if m == nil || m.user == "" || m.pass == "" {
		return fmt.Errorf("smtp credentials not configured (set SMTP_USER and SMTP_PASS)")
	}
	if m.from == "" {
		return fmt.Errorf("email sender not configured (set EMAIL_FROM or SMTP_USER)")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	for _, a := range attachments {
		msg.Attach(a)
	}

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := d.DialAndSend(msg); err != nil {
		logger.Error("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent to: %s", to)
	return nil
}
