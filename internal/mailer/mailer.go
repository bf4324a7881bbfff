// Package mailer sends transactional email. The server uses it for the
// registration verification flow.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/bitpredict/trading-platform/internal/config"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTP sends mail through a configured SMTP relay.
type SMTP struct {
	cfg config.MailConfig
}

// NewSMTP creates an SMTP mailer.
func NewSMTP(cfg config.MailConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

func (m *SMTP) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		htmlBody,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer logs instead of sending. Used when SMTP is not configured, so
// development environments and tests never need a relay.
type LogMailer struct {
	log *logger.Logger
}

// NewLogMailer creates a logging mailer.
func NewLogMailer(log *logger.Logger) *LogMailer {
	if log == nil {
		log = logger.NewDefault("mailer")
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(to, subject, htmlBody string) error {
	m.log.WithFields(map[string]interface{}{
		"to":      to,
		"subject": subject,
	}).Info("mail delivery skipped (no SMTP configured)")
	return nil
}

// FromConfig returns the SMTP mailer when a host is configured, otherwise
// the logging mailer.
func FromConfig(cfg config.MailConfig, log *logger.Logger) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return NewLogMailer(log)
	}
	return NewSMTP(cfg)
}
