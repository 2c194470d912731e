// Package log provides a notifier that prints alerts to the process
// log. It is the default sink when no delivery transport is configured,
// keeping alert evaluation observable in local and air-gapped runs.
package log

import (
	"context"

	"github.com/google/uuid"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/logger"
)

// Ensure Notifier implements the interface.
var _ driven.Notifier = (*Notifier)(nil)

// Notifier writes alert messages to the log.
type Notifier struct{}

// New creates a log notifier.
func New() *Notifier {
	return &Notifier{}
}

// Send writes the message to the log. It never fails.
func (n *Notifier) Send(_ context.Context, channel domain.Channel, message string) (driven.DeliveryResult, error) {
	logger.Info("[alert:%s] %s", channel, message)
	return driven.DeliveryResult{
		Channel:    channel,
		ProviderID: uuid.NewString(),
	}, nil
}
