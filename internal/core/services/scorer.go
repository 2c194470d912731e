package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/logger"
)

// ScorerConfig configures the risk scorer.
type ScorerConfig struct {
	// ModelWeight scales the model signal's contribution to the fused
	// score, in [0,1]. Zero disables the model signal entirely.
	ModelWeight float64

	// ModelTimeout bounds a single model call. On timeout scoring fails
	// closed with ErrScoringUnavailable.
	ModelTimeout time.Duration
}

// DefaultScorerConfig returns the default scoring configuration.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		ModelWeight:  0.5,
		ModelTimeout: 10 * time.Second,
	}
}

// RiskScorer computes a RiskAssessment from a document and its
// jurisdiction tags. The rule signal and the model signal are fused with
// a noisy-or, which is monotonic in each input, commutative, and
// saturates inside [0,1] — no signal can push the score out of range and
// combination order cannot change the tier.
type RiskScorer struct {
	model driven.RiskModel
	cfg   ScorerConfig
	now   func() time.Time
}

// NewRiskScorer creates a scorer. The model may be nil, in which case
// only rule signals contribute.
func NewRiskScorer(model driven.RiskModel, cfg ScorerConfig) *RiskScorer {
	return &RiskScorer{
		model: model,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Score produces the assessment for one document revision.
// Scoring an identical (text, tags) pair is idempotent: the shipped rule
// tables and local model are fully deterministic.
func (s *RiskScorer) Score(
	ctx context.Context, doc *domain.Document, tags []domain.JurisdictionTag,
) (*domain.RiskAssessment, error) {
	logger.Section("Risk Scoring")
	text := strings.ToLower(doc.Text)

	ruleSignal, matched := s.evaluateRules(text, tags)

	modelSignal := 0.0
	if s.model != nil && s.cfg.ModelWeight > 0 {
		signal, err := s.modelScore(ctx, doc.Text, tags)
		if err != nil {
			// Fail closed: never default a potentially risky document
			// to Compliant because the model was unreachable.
			return nil, fmt.Errorf("%w: %s", domain.ErrScoringUnavailable, err)
		}
		modelSignal = signal
	}

	score := fuseSignals(ruleSignal, s.cfg.ModelWeight*modelSignal)
	tier := domain.TierForScore(score)

	assessment := &domain.RiskAssessment{
		DocumentID:    doc.ID,
		Revision:      doc.Revision,
		Score:         score,
		Tier:          tier,
		Rationale:     buildRationale(score, matched),
		Categories:    categoriesOf(matched),
		Findings:      findingsOf(matched),
		Jurisdictions: tags,
		ComputedAt:    s.now(),
	}

	logger.Info("Scored %s rev %d: %.2f (%s)", doc.ID, doc.Revision, score, tier)
	return assessment, nil
}

// evaluateRules runs the jurisdiction rule set and combines the matched
// signals as 0.7·max + 0.3·avg. Both components are monotonic in every
// signal and bounded by the strongest match, so the result stays in [0,1].
func (s *RiskScorer) evaluateRules(
	text string, tags []domain.JurisdictionTag,
) (float64, []ScoringRule) {
	var matched []ScoringRule
	maxSignal, sum := 0.0, 0.0

	for _, rule := range rulesForJurisdictions(tags) {
		signal := rule.Signal(text)
		if signal == 0 {
			continue
		}
		matched = append(matched, rule)
		sum += signal
		if signal > maxSignal {
			maxSignal = signal
		}
	}

	if len(matched) == 0 {
		return 0, nil
	}
	avg := sum / float64(len(matched))
	return 0.7*maxSignal + 0.3*avg, matched
}

// modelScore calls the model collaborator under a bounded deadline.
func (s *RiskScorer) modelScore(
	ctx context.Context, text string, tags []domain.JurisdictionTag,
) (float64, error) {
	if s.cfg.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ModelTimeout)
		defer cancel()
	}

	signal, err := s.model.Score(ctx, text, tags)
	if err != nil {
		logger.Warn("Model %s failed: %v", s.model.Name(), err)
		return 0, err
	}
	return clamp01(signal), nil
}

// fuseSignals merges the rule and model signals with a noisy-or:
// 1 - (1-a)(1-b). Either signal alone can saturate the score; neither
// can reduce what the other established.
func fuseSignals(a, b float64) float64 {
	return clamp01(1 - (1-clamp01(a))*(1-clamp01(b)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// buildRationale renders the assessment summary in the report style the
// compliance reviewers expect.
func buildRationale(score float64, matched []ScoringRule) string {
	if len(matched) == 0 {
		return "No specific compliance risks identified in this document."
	}

	names := findingsOf(matched)
	sample := names
	if len(sample) > 3 {
		sample = sample[:3]
	}

	rationale := fmt.Sprintf(
		"Document contains %d compliance-related triggers including %s.",
		len(matched), strings.Join(sample, ", "),
	)

	switch {
	case score >= domain.HighBoundary:
		rationale += " This document indicates high compliance risk and requires immediate review."
	case score >= domain.LowBoundary:
		rationale += " This document indicates moderate compliance risk and should be reviewed."
	default:
		rationale += " This document indicates low compliance risk but should still be monitored."
	}
	return rationale
}

func categoriesOf(matched []ScoringRule) []string {
	seen := make(map[string]bool, len(matched))
	var categories []string
	for _, rule := range matched {
		if !seen[rule.Category] {
			seen[rule.Category] = true
			categories = append(categories, rule.Category)
		}
	}
	return categories
}

func findingsOf(matched []ScoringRule) []string {
	findings := make([]string, len(matched))
	for i, rule := range matched {
		findings[i] = rule.Name
	}
	return findings
}
