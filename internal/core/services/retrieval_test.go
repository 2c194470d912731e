package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

type stubIndex struct {
	lexical  []domain.SearchHit
	semantic []domain.SearchHit
	lexErr   error
	semErr   error
}

func (i *stubIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error { return nil }
func (i *stubIndex) Remove(ctx context.Context, documentID string) error       { return nil }
func (i *stubIndex) Entry(ctx context.Context, documentID string) (*domain.IndexEntry, error) {
	return nil, domain.ErrNotFound
}
func (i *stubIndex) Size(ctx context.Context) (int, error) { return 0, nil }

func (i *stubIndex) SearchLexical(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return i.lexical, i.lexErr
}

func (i *stubIndex) SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]domain.SearchHit, error) {
	return i.semantic, i.semErr
}

type stubEmbedder struct {
	err error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int   { return 3 }
func (e *stubEmbedder) ModelName() string { return "stub" }
func (e *stubEmbedder) Close() error      { return nil }

func hit(id string, score float64, tags ...domain.JurisdictionTag) domain.SearchHit {
	return domain.SearchHit{
		DocumentID:    id,
		Revision:      1,
		Score:         score,
		Jurisdictions: tags,
		IngestedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSearchHybridWeightedFusion(t *testing.T) {
	index := &stubIndex{
		lexical: []domain.SearchHit{
			hit("doc-a", 4.0),
			hit("doc-b", 2.0),
			hit("doc-c", 1.0),
		},
		semantic: []domain.SearchHit{
			hit("doc-b", 0.9),
			hit("doc-a", 0.5),
			hit("doc-d", 0.1),
		},
	}
	svc := NewRetrievalService(index, &stubEmbedder{}, DefaultRetrievalConfig())

	hits, err := svc.Search(context.Background(), "sanctions", domain.SearchOptions{K: 3})
	require.NoError(t, err)
	// doc-c and doc-d normalise to zero in their rankings and fall
	// below the relevance floor.
	require.Len(t, hits, 2)

	// doc-b: lexical norm 1/3 * 0.3 + semantic norm 1.0 * 0.7 = 0.8
	// doc-a: lexical norm 1.0 * 0.3 + semantic norm 0.5 * 0.7 = 0.65
	assert.Equal(t, "doc-b", hits[0].DocumentID)
	assert.Equal(t, "doc-a", hits[1].DocumentID)
	assert.InDelta(t, 0.8, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.65, hits[1].Score, 1e-9)
}

func TestSearchRRFFusion(t *testing.T) {
	index := &stubIndex{
		lexical:  []domain.SearchHit{hit("doc-a", 4.0), hit("doc-b", 2.0)},
		semantic: []domain.SearchHit{hit("doc-b", 0.9), hit("doc-a", 0.5)},
	}
	cfg := DefaultRetrievalConfig()
	cfg.Fusion = domain.FusionRRF
	svc := NewRetrievalService(index, &stubEmbedder{}, cfg)

	hits, err := svc.Search(context.Background(), "fraud", domain.SearchOptions{K: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Both documents appear at ranks 1 and 2, so both accumulate
	// 1/61 + 1/62 and tie; ID order breaks the tie.
	assert.InDelta(t, hits[0].Score, hits[1].Score, 1e-9)
	assert.Equal(t, "doc-a", hits[0].DocumentID)
}

func TestSearchLexicalFallbackWithoutEmbedder(t *testing.T) {
	index := &stubIndex{
		lexical:  []domain.SearchHit{hit("doc-a", 3.0)},
		semantic: []domain.SearchHit{hit("doc-z", 0.9)},
	}
	svc := NewRetrievalService(index, nil, DefaultRetrievalConfig())

	hits, err := svc.Search(context.Background(), "fraud", domain.SearchOptions{Mode: domain.SearchModeHybrid})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-a", hits[0].DocumentID)
}

func TestSearchDegradesWhenEmbeddingFails(t *testing.T) {
	index := &stubIndex{
		lexical: []domain.SearchHit{hit("doc-a", 3.0)},
	}
	svc := NewRetrievalService(index, &stubEmbedder{err: errors.New("model offline")}, DefaultRetrievalConfig())

	hits, err := svc.Search(context.Background(), "fraud", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-a", hits[0].DocumentID)
}

func TestSearchJurisdictionFilter(t *testing.T) {
	index := &stubIndex{
		lexical: []domain.SearchHit{
			hit("doc-us", 3.0, domain.JurisdictionUS),
			hit("doc-eu", 2.0, domain.JurisdictionEU),
		},
	}
	svc := NewRetrievalService(index, nil, DefaultRetrievalConfig())

	hits, err := svc.Search(context.Background(), "gdpr", domain.SearchOptions{
		Mode:          domain.SearchModeLexical,
		Jurisdictions: []domain.JurisdictionTag{domain.JurisdictionEU},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-eu", hits[0].DocumentID)
}

func TestSearchTimeFilter(t *testing.T) {
	old := hit("doc-old", 3.0)
	old.IngestedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := hit("doc-new", 2.0)

	index := &stubIndex{lexical: []domain.SearchHit{old, recent}}
	svc := NewRetrievalService(index, nil, DefaultRetrievalConfig())

	hits, err := svc.Search(context.Background(), "audit", domain.SearchOptions{
		Mode:  domain.SearchModeLexical,
		After: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-new", hits[0].DocumentID)
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	svc := NewRetrievalService(&stubIndex{}, nil, DefaultRetrievalConfig())

	_, err := svc.Search(context.Background(), "", domain.SearchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchTieBreakByIngestion(t *testing.T) {
	older := hit("doc-a", 2.0)
	older.IngestedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := hit("doc-b", 2.0)
	newer.IngestedAt = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	index := &stubIndex{lexical: []domain.SearchHit{older, newer}}
	svc := NewRetrievalService(index, nil, DefaultRetrievalConfig())

	hits, err := svc.Search(context.Background(), "filing", domain.SearchOptions{Mode: domain.SearchModeLexical})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc-b", hits[0].DocumentID)
}
