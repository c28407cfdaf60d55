package notification

import (
	"context"
	"fmt"
)

// SMSClient abstracts the carrier SDK so it can be injected or faked.
type SMSClient interface {
	Send(ctx context.Context, phone, body string) error
}

type SMSSender struct {
	cli SMSClient
}

func NewSMSSender(cli SMSClient) *SMSSender {
	return &SMSSender{cli: cli}
}

func (s *SMSSender) Send(ctx context.Context, d Delivery) (string, error) {
	if s.cli == nil {
		return "", fmt.Errorf("SMSClient not configured")
	}
	if err := s.cli.Send(ctx, d.Recipient, d.Body); err != nil {
		return "", err
	}
	return StatusSent, nil
}
