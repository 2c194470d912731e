package driving

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// AnswerService answers natural-language questions grounded in the
// retrieval index. Reads are fully concurrent with ingestion.
type AnswerService interface {
	// Answer retrieves relevant fragments and composes a grounded answer.
	// Returns ErrNoRelevantContext when retrieval comes back empty after
	// filtering, and ErrGenerationUnavailable when the generation
	// collaborator fails.
	Answer(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Answer, error)
}

// SearchService exposes raw ranked retrieval over the hybrid index.
type SearchService interface {
	// Search returns up to opts.K hits ordered by descending combined
	// score, ties broken by most-recent ingestion time. An empty result
	// is valid, not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error)
}
