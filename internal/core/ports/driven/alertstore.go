package driven

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// AlertStore persists alert events and their delivery history.
type AlertStore interface {
	// SaveEvent stores a new alert event.
	SaveEvent(ctx context.Context, event *domain.AlertEvent) error

	// UpdateDeliveries replaces the per-channel delivery records of an
	// existing event.
	UpdateDeliveries(ctx context.Context, eventID string, deliveries []domain.ChannelDelivery) error

	// LatestByDedupKey returns the most recent event for a dedup key,
	// or ErrNotFound when none exists.
	LatestByDedupKey(ctx context.Context, dedupKey string) (*domain.AlertEvent, error)

	// ListEvents returns events newest first, up to limit (0 = all).
	ListEvents(ctx context.Context, limit int) ([]domain.AlertEvent, error)
}
