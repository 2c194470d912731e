package generative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return g.reply, g.err
}

func (g *stubGenerator) ModelName() string { return "stub" }
func (g *stubGenerator) Close() error      { return nil }

func TestScoreParsesReply(t *testing.T) {
	model := New(&stubGenerator{reply: " 0.85 \n"})
	signal, err := model.Score(context.Background(), "text", []domain.JurisdictionTag{domain.JurisdictionUS})
	require.NoError(t, err)
	assert.Equal(t, 0.85, signal)
}

func TestScoreRejectsGarbage(t *testing.T) {
	model := New(&stubGenerator{reply: "the risk is moderate"})
	_, err := model.Score(context.Background(), "text", nil)
	assert.Error(t, err)
}

func TestScoreRejectsOutOfRange(t *testing.T) {
	model := New(&stubGenerator{reply: "7.5"})
	_, err := model.Score(context.Background(), "text", nil)
	assert.Error(t, err)
}

func TestScorePropagatesGeneratorError(t *testing.T) {
	model := New(&stubGenerator{err: errors.New("upstream 503")})
	_, err := model.Score(context.Background(), "text", nil)
	assert.Error(t, err)
}

func TestName(t *testing.T) {
	model := New(&stubGenerator{})
	assert.Equal(t, "generative/stub", model.Name())
}
