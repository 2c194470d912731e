package driving

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// MetricsService reports best-effort aggregate counts. It never fails on
// downstream transient errors; unavailable counts are zero.
type MetricsService interface {
	// Snapshot assembles the current aggregate counts.
	Snapshot(ctx context.Context) *domain.MetricsSnapshot
}
