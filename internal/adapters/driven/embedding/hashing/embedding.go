// Package hashing provides a deterministic, fully offline embedding
// service based on feature hashing. Vectors are far weaker than learned
// embeddings but need no network, no model files and no API key, which
// makes them the default for air-gapped deployments and tests.
package hashing

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/veridian-labs/reguard/internal/analysis"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default vector size.
const DefaultDimensions = 256

// EmbeddingService hashes tokens into a fixed-dimension vector.
// The same text always produces the same vector.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder. Non-positive
// dimensions fall back to the default.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, s.dimensions)

	for _, token := range analysis.Tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(s.dimensions))
		// The bit above the bucket decides the sign, which keeps
		// hash collisions from only ever accumulating.
		sign := float32(1)
		if (sum>>32)&1 == 1 {
			sign = -1
		}
		vector[bucket] += sign
	}

	normalise(vector)
	return vector, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return "feature-hashing"
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func normalise(vector []float32) {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
}
