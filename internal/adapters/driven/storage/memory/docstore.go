package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

const defaultListLimit = 50

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Revisions are kept append-only per document ID.
type DocumentStore struct {
	mu          sync.RWMutex
	revisions   map[string][]domain.Document
	assessments driven.AssessmentStore
}

// NewDocumentStore creates a new in-memory document store. The
// assessment store, when given, backs the tier and jurisdiction list
// filters; a nil store disables those filters.
func NewDocumentStore(assessments driven.AssessmentStore) *DocumentStore {
	return &DocumentStore{
		revisions:   make(map[string][]domain.Document),
		assessments: assessments,
	}
}

// SaveDocument appends a document revision. Re-saving an existing
// (ID, Revision) pair is a no-op.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.revisions[doc.ID] {
		if s.revisions[doc.ID][i].Revision == doc.Revision {
			return nil
		}
	}
	s.revisions[doc.ID] = append(s.revisions[doc.ID], *doc)
	return nil
}

// GetDocument retrieves a specific revision.
func (s *DocumentStore) GetDocument(_ context.Context, id string, revision int) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.revisions[id] {
		if s.revisions[id][i].Revision == revision {
			doc := s.revisions[id][i]
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// LatestRevision returns the highest stored revision for an ID, or 0.
func (s *DocumentStore) LatestRevision(_ context.Context, id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := 0
	for i := range s.revisions[id] {
		if s.revisions[id][i].Revision > latest {
			latest = s.revisions[id][i].Revision
		}
	}
	return latest, nil
}

// ListDocuments returns the latest revision of each matching document,
// newest first.
func (s *DocumentStore) ListDocuments(ctx context.Context, filter driven.DocumentFilter) ([]domain.Document, error) {
	s.mu.RLock()
	var latest []domain.Document
	for id := range s.revisions {
		revs := s.revisions[id]
		best := revs[0]
		for _, doc := range revs[1:] {
			if doc.Revision > best.Revision {
				best = doc
			}
		}
		latest = append(latest, best)
	}
	s.mu.RUnlock()

	var result []domain.Document
	for _, doc := range latest {
		if !s.matches(ctx, doc, filter) {
			continue
		}
		result = append(result, doc)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].IngestedAt.After(result[j].IngestedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountDocuments returns the total number of stored revisions.
func (s *DocumentStore) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, revs := range s.revisions {
		total += len(revs)
	}
	return total, nil
}

func (s *DocumentStore) matches(ctx context.Context, doc domain.Document, filter driven.DocumentFilter) bool {
	if !filter.Since.IsZero() && doc.IngestedAt.Before(filter.Since) {
		return false
	}
	if filter.Contains != "" {
		needle := strings.ToLower(filter.Contains)
		if !strings.Contains(strings.ToLower(doc.Title), needle) &&
			!strings.Contains(strings.ToLower(doc.Text), needle) {
			return false
		}
	}

	if filter.Jurisdiction == "" && filter.MinTier == nil {
		return true
	}
	if s.assessments == nil {
		return false
	}
	assessment, err := s.assessments.LatestAssessment(ctx, doc.ID)
	if err != nil {
		return false
	}
	if filter.MinTier != nil && assessment.Tier < *filter.MinTier {
		return false
	}
	if filter.Jurisdiction != "" && !domain.HasJurisdiction(assessment.Jurisdictions, filter.Jurisdiction) {
		return false
	}
	return true
}
