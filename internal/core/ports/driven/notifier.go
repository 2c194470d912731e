package driven

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// Notifier delivers a rendered alert message on one channel.
// Concrete provider SDKs (Twilio, SMTP, Slack) live behind this port and
// are out of core scope. A send error is treated as transient and retried
// by the dispatcher up to its attempt budget.
type Notifier interface {
	// Send delivers the message on the given channel.
	Send(ctx context.Context, channel domain.Channel, message string) (DeliveryResult, error)
}

// DeliveryResult reports the outcome of a single send attempt.
type DeliveryResult struct {
	// Channel is the channel the attempt targeted.
	Channel domain.Channel

	// ProviderID is the transport's message identifier, if any.
	ProviderID string
}
