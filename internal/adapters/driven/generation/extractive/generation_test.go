package extractive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

const samplePrompt = `You are a compliance analyst assistant. Answer the question using only the numbered excerpts below.

[1] (document doc-a)
The regulator imposed a fine of two million euros for late disclosure. The board accepted the finding.

[2] (document doc-b)
Catering arrangements for the annual meeting were approved.

Question: why was the fine imposed?
Answer:`

func TestGenerateExtractsRelevantSentence(t *testing.T) {
	svc := NewGenerationService()

	answer, err := svc.Generate(context.Background(), samplePrompt, driven.GenerateOptions{})
	require.NoError(t, err)

	assert.Contains(t, answer, "late disclosure")
	assert.NotContains(t, answer, "Catering")
}

func TestGenerateDeterministic(t *testing.T) {
	svc := NewGenerationService()
	ctx := context.Background()

	first, err := svc.Generate(ctx, samplePrompt, driven.GenerateOptions{})
	require.NoError(t, err)
	second, err := svc.Generate(ctx, samplePrompt, driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateNoOverlap(t *testing.T) {
	svc := NewGenerationService()

	prompt := "[1] (document doc-a)\nUnrelated content entirely.\n\nQuestion: what were the sanctions findings?\nAnswer:"
	answer, err := svc.Generate(context.Background(), prompt, driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Contains(t, answer, "do not contain")
}
