// Package lexicon provides a deterministic, fully offline risk model.
// The signal is the density of risk-bearing vocabulary in the text,
// dampened so a single stray term cannot saturate the score.
package lexicon

import (
	"context"
	"math"

	"github.com/veridian-labs/reguard/internal/analysis"
	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.RiskModel = (*Model)(nil)

// riskVocabulary holds single tokens that indicate elevated risk.
// Phrase-level matching lives in the scorer's rule tables; this model
// deliberately looks at a coarser token signal.
var riskVocabulary = map[string]float64{
	"laundering":    1.0,
	"sanctions":     0.9,
	"terrorist":     1.0,
	"fraud":         0.9,
	"bribery":       0.9,
	"embezzlement":  0.9,
	"kickback":      0.8,
	"ponzi":         1.0,
	"evasion":       0.8,
	"offshore":      0.6,
	"shell":         0.5,
	"hawala":        0.9,
	"undisclosed":   0.5,
	"falsified":     0.8,
	"misstatement":  0.7,
	"manipulation":  0.8,
	"insider":       0.7,
	"whistleblower": 0.5,
	"breach":        0.5,
	"violation":     0.6,
	"fine":          0.4,
	"penalty":       0.4,
	"investigation": 0.4,
	"enforcement":   0.4,
	"suspicious":    0.5,
	"unreported":    0.6,
}

// Model scores text by risk-vocabulary density.
type Model struct{}

// New creates a lexicon risk model.
func New() *Model {
	return &Model{}
}

// Score estimates a risk signal in [0,1]. The same text always yields
// the same signal.
func (m *Model) Score(_ context.Context, text string, _ []domain.JurisdictionTag) (float64, error) {
	tokens := analysis.Tokenize(text)
	if len(tokens) == 0 {
		return 0, nil
	}

	var weight float64
	hits := 0
	for _, token := range tokens {
		if w, ok := riskVocabulary[token]; ok {
			weight += w
			hits++
		}
	}
	if hits == 0 {
		return 0, nil
	}

	// Average term weight scaled by a saturating hit-count factor:
	// one hit counts for little, five or more approach full strength.
	avg := weight / float64(hits)
	saturation := 1 - math.Exp(-float64(hits)/2)
	return avg * saturation, nil
}

// Name identifies the model for assessment rationale.
func (m *Model) Name() string {
	return "lexicon"
}
