package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

func TestNormaliseStripsSyntax(t *testing.T) {
	n := New()

	result, err := n.Normalise(context.Background(), &domain.RawDocument{
		SourceURI: "upload://policy.md",
		MIMEType:  "text/markdown",
		Content: []byte(`# AML Policy

This policy covers **suspicious activity** reporting per [FinCEN](https://fincen.gov).

- Know your customer
- Report within 30 days
`),
	})
	require.NoError(t, err)

	assert.Equal(t, "AML Policy", result.Title)
	assert.Contains(t, result.Text, "This policy covers suspicious activity reporting per FinCEN.")
	assert.Contains(t, result.Text, "Know your customer")
	assert.NotContains(t, result.Text, "**")
	assert.NotContains(t, result.Text, "](")
}
