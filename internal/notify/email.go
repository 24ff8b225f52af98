package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewSMTPMailer builds the mailer. An empty host turns SendMail into a logged no-op.
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	m := &SMTPMailer{from: cfg.From, logger: logger}
	if strings.TrimSpace(cfg.Host) != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

// Enabled reports whether an SMTP host is configured.
func (m *SMTPMailer) Enabled() bool {
	return m.dialer != nil
}

func (m *SMTPMailer) buildMessage(mail Mail) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", mail.To)
	msg.SetHeader("Subject", mail.Subject)
	msg.SetBody("text/html", mail.HTMLBody)
	return msg
}

// SendMail dials and sends, giving up when ctx ends. The dial itself is not
// interruptible, so an abandoned send finishes in the background.
func (m *SMTPMailer) SendMail(ctx context.Context, mail Mail) error {
	if !m.Enabled() {
		m.logger.Debug("smtp not configured; dropping email",
			zap.String("to", mail.To),
			zap.String("subject", mail.Subject))
		return nil
	}

	msg := m.buildMessage(mail)
	result := make(chan error, 1)
	go func() {
		result <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
