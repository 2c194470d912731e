package driven

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// HybridIndex maintains the lexical and semantic retrieval structures over
// all live document revisions. One live entry exists per document ID.
//
// Consistency contract: a query concurrent with an upsert observes either
// the fully-old or the fully-new entry for that ID, never a mix of the
// old postings with the new vector. Upserts carrying a revision that is
// not newer than the live entry are discarded with ErrStaleRevision.
type HybridIndex interface {
	// Upsert atomically replaces the live entry for entry.DocumentID.
	Upsert(ctx context.Context, entry domain.IndexEntry) error

	// Remove tombstones the entry; subsequent queries exclude it.
	Remove(ctx context.Context, documentID string) error

	// Entry returns the live entry for a document, or ErrNotFound.
	Entry(ctx context.Context, documentID string) (*domain.IndexEntry, error)

	// SearchLexical ranks live entries by term overlap with the query.
	SearchLexical(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)

	// SearchSemantic ranks live entries by vector similarity.
	SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]domain.SearchHit, error)

	// Size returns the number of live entries.
	Size(ctx context.Context) (int, error)
}
