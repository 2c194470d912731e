package lexicon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCleanText(t *testing.T) {
	model := New()
	score, err := model.Score(context.Background(), "Quarterly revenue grew on subscription renewals.", nil)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestScoreRiskyTextHigher(t *testing.T) {
	model := New()
	ctx := context.Background()

	risky, err := model.Score(ctx,
		"Suspicious offshore laundering, sanctions evasion and falsified records were uncovered.", nil)
	require.NoError(t, err)

	mild, err := model.Score(ctx, "A minor penalty was paid after the investigation.", nil)
	require.NoError(t, err)

	assert.Greater(t, risky, mild)
	assert.LessOrEqual(t, risky, 1.0)
	assert.Greater(t, mild, 0.0)
}

func TestScoreDeterministic(t *testing.T) {
	model := New()
	ctx := context.Background()
	text := "Alleged bribery and kickback payments."

	first, err := model.Score(ctx, text, nil)
	require.NoError(t, err)
	second, err := model.Score(ctx, text, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScoreEmptyText(t *testing.T) {
	model := New()
	score, err := model.Score(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Zero(t, score)
}
