package driving

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// Pipeline is the streaming ingestion entry point. Documents are processed
// concurrently by a bounded worker pool; Submit applies backpressure by
// blocking once the queue is full.
type Pipeline interface {
	// Start launches the worker pool. It returns immediately; workers run
	// until Stop is called or ctx is cancelled.
	Start(ctx context.Context) error

	// Stop drains the queue and waits for in-flight documents.
	Stop()

	// Submit enqueues a raw document for processing. Blocks when the
	// queue is full.
	Submit(ctx context.Context, raw domain.RawDocument) error

	// Analyze runs the enrichment stages (normalise, classify, score)
	// synchronously without committing anything, and returns the
	// resulting assessment.
	Analyze(ctx context.Context, raw domain.RawDocument) (*domain.RiskAssessment, error)

	// Stats returns a snapshot of pipeline progress counters.
	Stats() PipelineStats
}

// PipelineStats is a point-in-time snapshot of pipeline counters.
type PipelineStats struct {
	// Processed is the number of revisions committed.
	Processed int

	// Rejected is the number of inputs rejected by normalisation.
	Rejected int

	// Failed is the number of documents that failed enrichment.
	Failed int

	// Stale is the number of results discarded by the revision guard.
	Stale int

	// Queued is the current queue depth.
	Queued int
}
