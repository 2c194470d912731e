package demo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driving"
)

type captivePipeline struct {
	submitted []domain.RawDocument
	err       error
}

func (p *captivePipeline) Start(context.Context) error { return nil }
func (p *captivePipeline) Stop()                       {}

func (p *captivePipeline) Submit(_ context.Context, raw domain.RawDocument) error {
	if p.err != nil {
		return p.err
	}
	p.submitted = append(p.submitted, raw)
	return nil
}

func (p *captivePipeline) Analyze(context.Context, domain.RawDocument) (*domain.RiskAssessment, error) {
	return nil, nil
}

func (p *captivePipeline) Stats() driving.PipelineStats { return driving.PipelineStats{} }

func TestSubmitFeedsAllSamples(t *testing.T) {
	pipeline := &captivePipeline{}

	n, err := Submit(context.Background(), pipeline)
	require.NoError(t, err)
	assert.Equal(t, len(samples), n)
	require.Len(t, pipeline.submitted, len(samples))

	for _, raw := range pipeline.submitted {
		assert.Contains(t, raw.SourceURI, "demo://")
		assert.NotEmpty(t, raw.Content)
		assert.Equal(t, "demo", raw.Metadata["feed"])
	}
	assert.Equal(t, "text/markdown", pipeline.submitted[3].MIMEType)
	assert.Equal(t, "text/plain", pipeline.submitted[0].MIMEType)
}

func TestSubmitStableURIs(t *testing.T) {
	first := &captivePipeline{}
	second := &captivePipeline{}

	_, err := Submit(context.Background(), first)
	require.NoError(t, err)
	_, err = Submit(context.Background(), second)
	require.NoError(t, err)

	for i := range first.submitted {
		assert.Equal(t, first.submitted[i].SourceURI, second.submitted[i].SourceURI)
	}
}

func TestSubmitPropagatesPipelineError(t *testing.T) {
	wantErr := errors.New("queue closed")
	pipeline := &captivePipeline{err: wantErr}

	n, err := Submit(context.Background(), pipeline)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, n)
}
