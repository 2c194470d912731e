package driven

import (
	"context"
	"time"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// DocumentStore persists document revisions append-only.
// Saving the same (ID, Revision) twice is a no-op, which makes pipeline
// re-runs idempotent.
type DocumentStore interface {
	// SaveDocument appends a document revision. Prior revisions are
	// retained for audit.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a specific revision.
	GetDocument(ctx context.Context, id string, revision int) (*domain.Document, error)

	// LatestRevision returns the highest stored revision for an ID,
	// or 0 when the ID is unknown.
	LatestRevision(ctx context.Context, id string) (int, error)

	// ListDocuments returns the latest revision of each document matching
	// the filter, newest first.
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]domain.Document, error)

	// CountDocuments returns the total number of stored revisions.
	CountDocuments(ctx context.Context) (int, error)
}

// DocumentFilter restricts a document listing.
type DocumentFilter struct {
	// Jurisdiction restricts to documents whose latest assessment carries
	// the tag. Empty means no filter.
	Jurisdiction domain.JurisdictionTag

	// MinTier restricts to documents whose latest assessment is at or
	// above the tier. Nil means no filter.
	MinTier *domain.RiskTier

	// Contains restricts to documents whose title or text contains the
	// substring (case-insensitive). Empty means no filter.
	Contains string

	// Since excludes documents ingested before this time.
	Since time.Time

	// Limit caps the result count; 0 means a store-chosen default.
	Limit int
}

// AssessmentStore persists risk assessments append-only, one per
// (document ID, revision) pair.
type AssessmentStore interface {
	// SaveAssessment appends an assessment. Saving the same
	// (DocumentID, Revision) twice is a no-op.
	SaveAssessment(ctx context.Context, a *domain.RiskAssessment) error

	// GetAssessment retrieves the assessment for a specific revision.
	GetAssessment(ctx context.Context, documentID string, revision int) (*domain.RiskAssessment, error)

	// LatestAssessment retrieves the assessment for the highest assessed
	// revision of a document.
	LatestAssessment(ctx context.Context, documentID string) (*domain.RiskAssessment, error)
}
