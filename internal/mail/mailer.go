// Package mail sends account emails: password resets and address verification.
package mail

import (
	"context"
	"fmt"

	"estatehub/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// New returns an SMTP mailer, or a mailer that only logs when no host is configured.
func New(cfg *config.MailConfig, log *zap.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{log: log}
	}
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	return nil
}

// LogMailer writes messages to the log. Used in development.
type LogMailer struct {
	log *zap.Logger
}

func (l *LogMailer) Send(_ context.Context, m Message) error {
	l.log.Info("Mail not sent, no SMTP host configured",
		zap.String("to", m.To), zap.String("subject", m.Subject), zap.String("body", m.Body))
	return nil
}
