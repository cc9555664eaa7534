package alerting

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
)

// EmailSender delivers a plain-text email
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a relay. A new connection is dialled per message.
type SMTPMailer struct {
	cfg            config.SMTPConfig
	circuitBreaker *CircuitBreaker
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, circuitBreaker: NewCircuitBreaker(cfg.FailureThreshold, cfg.ResetTimeout)}
}

// GetCircuitBreakerStatus returns the relay breaker state reported by the ingestor /health endpoint
func (m *SMTPMailer) GetCircuitBreakerStatus() map[string]interface{} {
	return m.circuitBreaker.Status()
}

// recipientRefused reports a permanent RCPT TO rejection, which only concerns this address
func recipientRefused(err error) bool {
	var se *mail.SendError
	return errors.As(err, &se) && se.Reason == mail.ErrSMTPRcptTo && !se.IsTemp()
}

func (m *SMTPMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.Timeout))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	return m.circuitBreaker.Execute(func() error {
		if err := client.DialAndSendWithContext(ctx, msg); err != nil {
			err = fmt.Errorf("failed to send email to %s: %w", to, err)
			if recipientRefused(err) {
				return rejected(err)
			}
			return err
		}
		return nil
	})
}
