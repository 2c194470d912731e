package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

func TestNormaliseStripsMarkup(t *testing.T) {
	n := New()

	raw := &domain.RawDocument{
		SourceURI: "https://example.com/alert.html",
		MIMEType:  "text/html",
		Content: []byte(`<html>
<head><title>Enforcement Action</title><style>p{color:red}</style></head>
<body>
<script>track();</script>
<p>The SEC announced an enforcement action.</p>
<p>Penalties &amp; disgorgement apply.</p>
</body></html>`),
	}

	result, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Enforcement Action", result.Title)
	assert.Contains(t, result.Text, "The SEC announced an enforcement action.")
	assert.Contains(t, result.Text, "Penalties & disgorgement apply.")
	assert.NotContains(t, result.Text, "track()")
	assert.NotContains(t, result.Text, "color:red")
}

func TestNormaliseTitleFallback(t *testing.T) {
	n := New()

	result, err := n.Normalise(context.Background(), &domain.RawDocument{
		SourceURI: "https://example.com/quarterly_update.html",
		MIMEType:  "text/html",
		Content:   []byte("<p>body only</p>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "quarterly update", result.Title)
}

func TestNormaliseNilInput(t *testing.T) {
	n := New()
	_, err := n.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
