package driven

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// AnswerCache holds recent query answers for a bounded time.
// The cache is an optimisation only; a nil cache disables it.
type AnswerCache interface {
	// Get returns the cached answer for a key, or false when absent
	// or expired.
	Get(ctx context.Context, key string) (*domain.Answer, bool)

	// Put stores an answer under a key until the cache's TTL elapses.
	Put(ctx context.Context, key string, answer *domain.Answer)
}
