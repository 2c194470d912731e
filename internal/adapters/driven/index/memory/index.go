// Package memory provides the in-process hybrid index. Lexical ranking
// uses BM25 over per-entry term frequencies; semantic ranking uses cosine
// similarity over the entry embeddings.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/veridian-labs/reguard/internal/analysis"
	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure HybridIndex implements the interface.
var _ driven.HybridIndex = (*HybridIndex)(nil)

// BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// HybridIndex keeps one immutable entry per document ID under a single
// lock, so a query never observes the postings of one revision mixed
// with the vector of another.
type HybridIndex struct {
	mu      sync.RWMutex
	entries map[string]*domain.IndexEntry
}

// NewHybridIndex creates an empty index.
func NewHybridIndex() *HybridIndex {
	return &HybridIndex{entries: make(map[string]*domain.IndexEntry)}
}

// Upsert atomically replaces the live entry for entry.DocumentID.
// An entry whose revision is not newer than the live one is rejected
// with ErrStaleRevision.
func (i *HybridIndex) Upsert(_ context.Context, entry domain.IndexEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if live, ok := i.entries[entry.DocumentID]; ok && entry.Revision <= live.Revision {
		return fmt.Errorf("%w: revision %d not newer than %d for %s",
			domain.ErrStaleRevision, entry.Revision, live.Revision, entry.DocumentID)
	}
	copied := entry
	i.entries[entry.DocumentID] = &copied
	return nil
}

// Remove tombstones the entry for a document.
func (i *HybridIndex) Remove(_ context.Context, documentID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.entries, documentID)
	return nil
}

// Entry returns the live entry for a document.
func (i *HybridIndex) Entry(_ context.Context, documentID string) (*domain.IndexEntry, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	entry, ok := i.entries[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

// SearchLexical ranks live entries by BM25 over the query terms.
func (i *HybridIndex) SearchLexical(_ context.Context, query string, limit int) ([]domain.SearchHit, error) {
	terms := analysis.Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	total := len(i.entries)
	if total == 0 {
		return nil, nil
	}

	avgLength := 0.0
	for _, entry := range i.entries {
		avgLength += float64(entry.Length)
	}
	avgLength /= float64(total)
	if avgLength == 0 {
		avgLength = 1
	}

	// Document frequency per query term.
	docFreq := make(map[string]int, len(terms))
	for _, term := range terms {
		for _, entry := range i.entries {
			if entry.Terms[term] > 0 {
				docFreq[term]++
			}
		}
	}

	var hits []domain.SearchHit
	for _, entry := range i.entries {
		score := 0.0
		for _, term := range terms {
			freq := entry.Terms[term]
			if freq == 0 {
				continue
			}
			idf := math.Log(1 + (float64(total)-float64(docFreq[term])+0.5)/(float64(docFreq[term])+0.5))
			norm := float64(freq) * (bm25K1 + 1) /
				(float64(freq) + bm25K1*(1-bm25B+bm25B*float64(entry.Length)/avgLength))
			score += idf * norm
		}
		if score > 0 {
			hits = append(hits, hitFromEntry(entry, score))
		}
	}

	return topHits(hits, limit), nil
}

// SearchSemantic ranks live entries by cosine similarity to the query
// embedding. Entries without embeddings are skipped.
func (i *HybridIndex) SearchSemantic(_ context.Context, embedding []float32, limit int) ([]domain.SearchHit, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	var hits []domain.SearchHit
	for _, entry := range i.entries {
		if len(entry.Embedding) != len(embedding) {
			continue
		}
		score := cosineSimilarity(embedding, entry.Embedding)
		if score > 0 {
			hits = append(hits, hitFromEntry(entry, score))
		}
	}

	return topHits(hits, limit), nil
}

// Size returns the number of live entries.
func (i *HybridIndex) Size(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries), nil
}

func hitFromEntry(entry *domain.IndexEntry, score float64) domain.SearchHit {
	return domain.SearchHit{
		DocumentID:    entry.DocumentID,
		Revision:      entry.Revision,
		Score:         score,
		Fragment:      entry.Fragment,
		Jurisdictions: entry.Jurisdictions,
		IngestedAt:    entry.IngestedAt,
	}
}

func topHits(hits []domain.SearchHit, limit int) []domain.SearchHit {
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].DocumentID < hits[b].DocumentID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
