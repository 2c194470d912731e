package domain

import "time"

// SearchMode selects which retrieval structures a search consults.
type SearchMode int

// Search modes.
const (
	// SearchModeHybrid merges lexical and semantic rankings.
	SearchModeHybrid SearchMode = iota

	// SearchModeLexical uses term-overlap ranking only.
	SearchModeLexical

	// SearchModeSemantic uses vector-similarity ranking only.
	SearchModeSemantic
)

// String returns the mode label.
func (m SearchMode) String() string {
	switch m {
	case SearchModeHybrid:
		return "hybrid"
	case SearchModeLexical:
		return "lexical"
	case SearchModeSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// FusionMethod selects how lexical and semantic rankings are merged.
type FusionMethod int

// Fusion methods for hybrid search.
const (
	// FusionWeightedSum combines normalised scores with configured weights.
	FusionWeightedSum FusionMethod = iota

	// FusionRRF merges by reciprocal rank.
	FusionRRF
)

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// K is the maximum number of results (default 5).
	K int

	// Mode selects lexical, semantic or hybrid retrieval.
	Mode SearchMode

	// Jurisdictions restricts results to documents carrying any of the
	// given tags. Empty means no jurisdiction filter.
	Jurisdictions []JurisdictionTag

	// After excludes documents ingested at or before this time.
	After time.Time

	// Before excludes documents ingested at or after this time.
	Before time.Time
}

// SearchHit is one ranked retrieval result.
type SearchHit struct {
	// DocumentID is the matched document.
	DocumentID string

	// Revision is the live revision the hit was produced from.
	Revision int

	// Score is the combined relevance score.
	Score float64

	// Fragment is a short excerpt of the matched content.
	Fragment string

	// Jurisdictions are the tags recorded on the index entry.
	Jurisdictions []JurisdictionTag

	// IngestedAt is the entry's ingestion time, used for tie-breaking.
	IngestedAt time.Time
}

// Answer is the grounded response to a natural-language query.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources lists the document IDs whose fragments grounded the answer.
	Sources []string
}
