package driven

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// RiskModel produces the model-based risk signal the scorer fuses with its
// rule signals. Implementations range from a deterministic lexical
// estimator to an LLM-backed scorer.
type RiskModel interface {
	// Score estimates a risk signal in [0,1] for the text under the given
	// jurisdiction tags. Errors (outage, timeout) make the overall scoring
	// fail closed; implementations must not silently return 0 on failure.
	Score(ctx context.Context, text string, tags []domain.JurisdictionTag) (float64, error)

	// Name identifies the model for assessment rationale.
	Name() string
}
