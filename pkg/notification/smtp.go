package notification

import (
	"context"
	"fmt"
	"net/smtp"
)

type smtpClient struct {
	cfg MailConfig
}

// NewSMTPClient returns a MailClient speaking plain SMTP with the configured
// credentials.
func NewSMTPClient(cfg MailConfig) MailClient {
	return &smtpClient{cfg: cfg}
}

func (c *smtpClient) Send(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		c.cfg.From, to, subject, body)
	return smtp.SendMail(addr, auth, c.cfg.From, []string{to}, []byte(msg))
}
