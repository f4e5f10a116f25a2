// Package mail sends the transactional email this backend produces: the
// account-verification message at registration and the password-reset
// message from the forgot-password flow.
//
// Delivery goes through gomail over SMTP. The bodies are small inline
// HTML documents built in content.go; each carries a single link with a
// signed token embedded in the query string.
package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // sender address shown to recipients
}

// Mailer delivers HTML mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a Mailer from SMTP settings.
func NewMailer(cfg Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a single HTML message. Each call dials a fresh SMTP
// connection; at this system's mail volume (one message per registration
// or reset) keeping a connection open buys nothing.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: sending to %s: %w", to, err)
	}
	return nil
}
