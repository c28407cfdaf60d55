package notification

import (
	"context"
	"fmt"
)

type MailConfig struct {
	Host     string
	Port     int64
	Username string
	Password string
	From     string
}

// MailClient abstracts the mail transport so it can be injected or faked.
type MailClient interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Mailer struct {
	cfg MailConfig
	cli MailClient
}

func NewMailer(cfg MailConfig, cli MailClient) *Mailer {
	return &Mailer{cfg: cfg, cli: cli}
}

func (m *Mailer) Send(ctx context.Context, d Delivery) (string, error) {
	if m.cli == nil {
		return "", fmt.Errorf("MailClient not configured")
	}
	if err := m.cli.Send(ctx, d.Recipient, d.Subject, d.Body); err != nil {
		return "", err
	}
	return StatusSent, nil
}
