package notification

import "context"

// Delivery statuses reported by notifiers. They line up with the dispatch
// record statuses persisted by the dispatch engine.
const (
	StatusSent      = "SENT"
	StatusSimulated = "SIMULATED"
)

// Channels.
const (
	ChannelSMS   = "SMS"
	ChannelEmail = "EMAIL"
	ChannelPush  = "PUSH"
)

// Delivery is one composed message bound for one recipient over one channel.
type Delivery struct {
	Channel   string
	Recipient string
	Subject   string
	Body      string
}

// Notifier delivers one message and reports the status to record. Retry
// policy lives behind this interface, never in the dispatch engine.
type Notifier interface {
	Send(ctx context.Context, d Delivery) (status string, err error)
}

// Simulated is the default transport: it records the attempt without sending
// anything.
type Simulated struct{}

func (Simulated) Send(ctx context.Context, d Delivery) (string, error) {
	return StatusSimulated, nil
}

// Router picks a notifier per channel, falling back to simulated delivery for
// any channel without a configured transport.
type Router struct {
	SMS   Notifier
	Email Notifier
	Push  Notifier
}

func (r *Router) Send(ctx context.Context, d Delivery) (string, error) {
	var n Notifier
	switch d.Channel {
	case ChannelSMS:
		n = r.SMS
	case ChannelEmail:
		n = r.Email
	case ChannelPush:
		n = r.Push
	}
	if n == nil {
		n = Simulated{}
	}
	return n.Send(ctx, d)
}
