package domain

import "time"

// RiskTier is the discrete risk category derived from the continuous score.
type RiskTier int

// Risk tiers in ascending severity. The mapping from score to tier uses
// closed-lower, half-open intervals: a score landing exactly on a boundary
// belongs to the higher tier.
const (
	TierCompliant RiskTier = iota // [0.0, 0.4)
	TierLow                       // [0.4, 0.6)
	TierMedium                    // [0.6, 0.8)
	TierHigh                      // [0.8, 1.0]
)

// Tier score boundaries.
const (
	LowBoundary    = 0.4
	MediumBoundary = 0.6
	HighBoundary   = 0.8
)

// TierForScore maps a score in [0,1] to its tier. The mapping is total:
// out-of-range scores clamp to the nearest tier.
func TierForScore(score float64) RiskTier {
	switch {
	case score >= HighBoundary:
		return TierHigh
	case score >= MediumBoundary:
		return TierMedium
	case score >= LowBoundary:
		return TierLow
	default:
		return TierCompliant
	}
}

// String returns the tier label.
func (t RiskTier) String() string {
	switch t {
	case TierCompliant:
		return "Compliant"
	case TierLow:
		return "Low"
	case TierMedium:
		return "Medium"
	case TierHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// ParseTier converts a tier label back to a RiskTier.
func ParseTier(s string) (RiskTier, bool) {
	switch s {
	case "Compliant":
		return TierCompliant, true
	case "Low":
		return TierLow, true
	case "Medium":
		return TierMedium, true
	case "High":
		return TierHigh, true
	default:
		return TierCompliant, false
	}
}

// RiskAssessment is the scoring outcome for exactly one document revision.
type RiskAssessment struct {
	// DocumentID identifies the assessed document.
	DocumentID string

	// Revision is the document revision this assessment belongs to.
	Revision int

	// Score is the combined risk score in [0,1].
	Score float64

	// Tier is derived from Score via TierForScore.
	Tier RiskTier

	// Rationale is a free-text explanation of the score.
	Rationale string

	// Categories lists the risk categories the matched rules belong to.
	Categories []string

	// Findings lists the specific triggers found in the text.
	Findings []string

	// Jurisdictions are the tags the document was scored under.
	Jurisdictions []JurisdictionTag

	// ComputedAt is when the assessment was produced.
	ComputedAt time.Time
}
