package services

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/core/ports/driving"
	"github.com/veridian-labs/reguard/internal/logger"
)

// MetricsAggregator assembles best-effort aggregate counts from the
// stores, the index and the pipeline. Downstream failures leave the
// affected counts at zero instead of failing the snapshot.
type MetricsAggregator struct {
	docs       driven.DocumentStore
	index      driven.HybridIndex
	alerts     driven.AlertStore
	pipeline   driving.Pipeline
	dispatcher *AlertDispatcher
}

// NewMetricsAggregator creates a metrics service. Any collaborator may
// be nil; its counts then report zero.
func NewMetricsAggregator(
	docs driven.DocumentStore,
	index driven.HybridIndex,
	alerts driven.AlertStore,
	pipeline driving.Pipeline,
	dispatcher *AlertDispatcher,
) *MetricsAggregator {
	return &MetricsAggregator{
		docs:       docs,
		index:      index,
		alerts:     alerts,
		pipeline:   pipeline,
		dispatcher: dispatcher,
	}
}

// Snapshot implements driving.MetricsService.
func (m *MetricsAggregator) Snapshot(ctx context.Context) *domain.MetricsSnapshot {
	snapshot := &domain.MetricsSnapshot{
		AlertsByTier:         make(map[string]int),
		AlertsByJurisdiction: make(map[string]int),
	}

	if m.docs != nil {
		if count, err := m.docs.CountDocuments(ctx); err == nil {
			snapshot.DocumentsIngested = count
		} else {
			logger.Warn("Counting documents: %v", err)
		}
	}

	if m.index != nil {
		if size, err := m.index.Size(ctx); err == nil {
			snapshot.IndexSize = size
		} else {
			logger.Warn("Reading index size: %v", err)
		}
	}

	if m.pipeline != nil {
		stats := m.pipeline.Stats()
		snapshot.DocumentsRejected = stats.Rejected
	}

	if m.alerts != nil {
		events, err := m.alerts.ListEvents(ctx, 0)
		if err != nil {
			logger.Warn("Listing alert events: %v", err)
		}
		for i := range events {
			snapshot.AlertsByTier[events[i].Tier.String()]++
			for _, tag := range events[i].Jurisdictions {
				snapshot.AlertsByJurisdiction[string(tag)]++
			}
		}
	}

	if m.dispatcher != nil {
		snapshot.AlertsSuppressed = m.dispatcher.Stats().Suppressed
	}

	return snapshot
}
