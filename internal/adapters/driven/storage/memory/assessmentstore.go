package memory

import (
	"context"
	"sync"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure AssessmentStore implements the interface.
var _ driven.AssessmentStore = (*AssessmentStore)(nil)

// AssessmentStore is an in-memory implementation of
// driven.AssessmentStore.
type AssessmentStore struct {
	mu          sync.RWMutex
	assessments map[string][]domain.RiskAssessment
}

// NewAssessmentStore creates a new in-memory assessment store.
func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{
		assessments: make(map[string][]domain.RiskAssessment),
	}
}

// SaveAssessment appends an assessment. Re-saving an existing
// (DocumentID, Revision) pair is a no-op.
func (s *AssessmentStore) SaveAssessment(_ context.Context, a *domain.RiskAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assessments[a.DocumentID] {
		if s.assessments[a.DocumentID][i].Revision == a.Revision {
			return nil
		}
	}
	s.assessments[a.DocumentID] = append(s.assessments[a.DocumentID], *a)
	return nil
}

// GetAssessment retrieves the assessment for a specific revision.
func (s *AssessmentStore) GetAssessment(_ context.Context, documentID string, revision int) (*domain.RiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.assessments[documentID] {
		if s.assessments[documentID][i].Revision == revision {
			a := s.assessments[documentID][i]
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

// LatestAssessment retrieves the assessment for the highest assessed
// revision of a document.
func (s *AssessmentStore) LatestAssessment(_ context.Context, documentID string) (*domain.RiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.RiskAssessment
	for i := range s.assessments[documentID] {
		if latest == nil || s.assessments[documentID][i].Revision > latest.Revision {
			latest = &s.assessments[documentID][i]
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	a := *latest
	return &a, nil
}
