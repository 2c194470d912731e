package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/logger"
)

const (
	defaultSearchK = 5

	// candidateMultiplier over-fetches from each ranking so fusion and
	// post-filtering still have enough candidates to fill K results.
	candidateMultiplier = 4

	// rrfK dampens the contribution of deep ranks in reciprocal rank
	// fusion.
	rrfK = 60

	// minRelevance drops fused hits with effectively no signal.
	minRelevance = 1e-6
)

// RetrievalConfig configures hybrid search fusion.
type RetrievalConfig struct {
	// Fusion selects weighted-sum or reciprocal-rank merging.
	Fusion domain.FusionMethod

	// SemanticWeight and LexicalWeight apply to weighted-sum fusion.
	SemanticWeight float64
	LexicalWeight  float64
}

// DefaultRetrievalConfig returns weighted-sum fusion favouring the
// semantic ranking.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Fusion:         domain.FusionWeightedSum,
		SemanticWeight: 0.7,
		LexicalWeight:  0.3,
	}
}

// RetrievalService ranks documents against a query by fusing the index's
// lexical and semantic rankings. With no embedder configured it degrades
// to lexical-only retrieval instead of failing.
type RetrievalService struct {
	index    driven.HybridIndex
	embedder driven.EmbeddingService
	cfg      RetrievalConfig
}

// NewRetrievalService creates a search service. The embedder may be nil.
func NewRetrievalService(
	index driven.HybridIndex, embedder driven.EmbeddingService, cfg RetrievalConfig,
) *RetrievalService {
	return &RetrievalService{index: index, embedder: embedder, cfg: cfg}
}

// Search implements driving.SearchService.
func (s *RetrievalService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if opts.K <= 0 {
		opts.K = defaultSearchK
	}

	mode := opts.Mode
	if mode != domain.SearchModeLexical && s.embedder == nil {
		logger.Debug("No embedder configured, falling back to lexical retrieval")
		mode = domain.SearchModeLexical
	}

	fetch := opts.K * candidateMultiplier

	var hits []domain.SearchHit
	var err error
	switch mode {
	case domain.SearchModeLexical:
		hits, err = s.index.SearchLexical(ctx, query, fetch)
	case domain.SearchModeSemantic:
		hits, err = s.semanticHits(ctx, query, fetch)
	default:
		hits, err = s.hybridHits(ctx, query, fetch)
	}
	if err != nil {
		return nil, err
	}

	hits = filterHits(hits, opts)
	sortHits(hits)
	if len(hits) > opts.K {
		hits = hits[:opts.K]
	}
	return hits, nil
}

func (s *RetrievalService) semanticHits(
	ctx context.Context, query string, limit int,
) ([]domain.SearchHit, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return s.index.SearchSemantic(ctx, embedding, limit)
}

// hybridHits runs the lexical and semantic rankings concurrently and
// fuses them. An embedding failure degrades to the lexical ranking alone.
func (s *RetrievalService) hybridHits(
	ctx context.Context, query string, limit int,
) ([]domain.SearchHit, error) {
	var (
		wg       sync.WaitGroup
		lexical  []domain.SearchHit
		semantic []domain.SearchHit
		lexErr   error
		semErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		lexical, lexErr = s.index.SearchLexical(ctx, query, limit)
	}()
	go func() {
		defer wg.Done()
		semantic, semErr = s.semanticHits(ctx, query, limit)
	}()
	wg.Wait()

	if lexErr != nil {
		return nil, lexErr
	}
	if semErr != nil {
		logger.Warn("Semantic ranking unavailable, using lexical only: %v", semErr)
		return lexical, nil
	}

	if s.cfg.Fusion == domain.FusionRRF {
		return fuseRRF(lexical, semantic), nil
	}
	return fuseWeighted(lexical, semantic, s.cfg.LexicalWeight, s.cfg.SemanticWeight), nil
}

// fuseWeighted merges two rankings by a weighted sum of their min-max
// normalised scores. A document present in only one ranking contributes
// zero from the other.
func fuseWeighted(lexical, semantic []domain.SearchHit, wLex, wSem float64) []domain.SearchHit {
	merged := make(map[string]domain.SearchHit)

	for _, hit := range normaliseScores(lexical) {
		hit.Score *= wLex
		merged[hit.DocumentID] = hit
	}
	for _, hit := range normaliseScores(semantic) {
		if existing, ok := merged[hit.DocumentID]; ok {
			existing.Score += hit.Score * wSem
			merged[hit.DocumentID] = existing
			continue
		}
		hit.Score *= wSem
		merged[hit.DocumentID] = hit
	}

	return collectFused(merged)
}

// fuseRRF merges two rankings by reciprocal rank, ignoring the raw
// scores entirely.
func fuseRRF(rankings ...[]domain.SearchHit) []domain.SearchHit {
	merged := make(map[string]domain.SearchHit)

	for _, ranking := range rankings {
		for rank, hit := range ranking {
			contribution := 1.0 / float64(rrfK+rank+1)
			if existing, ok := merged[hit.DocumentID]; ok {
				existing.Score += contribution
				merged[hit.DocumentID] = existing
				continue
			}
			hit.Score = contribution
			merged[hit.DocumentID] = hit
		}
	}

	return collectFused(merged)
}

func collectFused(merged map[string]domain.SearchHit) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(merged))
	for _, hit := range merged {
		if hit.Score < minRelevance {
			continue
		}
		hits = append(hits, hit)
	}
	return hits
}

// normaliseScores rescales a ranking's scores to [0,1] by min-max. A
// ranking with a single score level maps every hit to 1.
func normaliseScores(hits []domain.SearchHit) []domain.SearchHit {
	if len(hits) == 0 {
		return hits
	}

	lo, hi := hits[0].Score, hits[0].Score
	for _, hit := range hits[1:] {
		if hit.Score < lo {
			lo = hit.Score
		}
		if hit.Score > hi {
			hi = hit.Score
		}
	}

	out := make([]domain.SearchHit, len(hits))
	for i, hit := range hits {
		if hi > lo {
			hit.Score = (hit.Score - lo) / (hi - lo)
		} else {
			hit.Score = 1
		}
		out[i] = hit
	}
	return out
}

// filterHits applies jurisdiction and ingestion-time constraints.
func filterHits(hits []domain.SearchHit, opts domain.SearchOptions) []domain.SearchHit {
	filtered := hits[:0]
	for _, hit := range hits {
		if len(opts.Jurisdictions) > 0 && !hasAnyJurisdiction(hit.Jurisdictions, opts.Jurisdictions) {
			continue
		}
		if !opts.After.IsZero() && !hit.IngestedAt.After(opts.After) {
			continue
		}
		if !opts.Before.IsZero() && !hit.IngestedAt.Before(opts.Before) {
			continue
		}
		filtered = append(filtered, hit)
	}
	return filtered
}

func hasAnyJurisdiction(have, want []domain.JurisdictionTag) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// sortHits orders by descending score, ties broken by most recent
// ingestion, then by document ID for a stable total order.
func sortHits(hits []domain.SearchHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if !hits[i].IngestedAt.Equal(hits[j].IngestedAt) {
			return hits[i].IngestedAt.After(hits[j].IngestedAt)
		}
		return hits[i].DocumentID < hits[j].DocumentID
	})
}
