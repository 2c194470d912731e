package memory

import (
	"context"
	"sync"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure AlertStore implements the interface.
var _ driven.AlertStore = (*AlertStore)(nil)

// AlertStore is an in-memory implementation of driven.AlertStore.
// Events are kept in firing order.
type AlertStore struct {
	mu     sync.RWMutex
	events []domain.AlertEvent
}

// NewAlertStore creates a new in-memory alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{}
}

// SaveEvent stores a new alert event.
func (s *AlertStore) SaveEvent(_ context.Context, event *domain.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

// UpdateDeliveries replaces the delivery records of an existing event.
func (s *AlertStore) UpdateDeliveries(_ context.Context, eventID string, deliveries []domain.ChannelDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == eventID {
			s.events[i].Deliveries = append([]domain.ChannelDelivery(nil), deliveries...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// LatestByDedupKey returns the most recent event for a dedup key.
func (s *AlertStore) LatestByDedupKey(_ context.Context, dedupKey string) (*domain.AlertEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].DedupKey == dedupKey {
			event := s.events[i]
			return &event, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListEvents returns events newest first, up to limit (0 = all).
func (s *AlertStore) ListEvents(_ context.Context, limit int) ([]domain.AlertEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.AlertEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		result = append(result, s.events[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
