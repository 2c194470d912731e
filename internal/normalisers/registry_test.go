package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/normalisers/html"
	"github.com/veridian-labs/reguard/internal/normalisers/plaintext"
)

func newTestRegistry() *Registry {
	return NewRegistry(plaintext.New(), html.New())
}

func TestRegistryNormalisePlaintext(t *testing.T) {
	reg := newTestRegistry()

	doc, err := reg.Normalise(context.Background(), &domain.RawDocument{
		SourceURI: "upload://filings/10k_2025.txt",
		MIMEType:  "text/plain; charset=utf-8",
		Content:   []byte("Annual report discussing anti-money laundering controls.\r\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Annual report discussing anti-money laundering controls.", doc.Text)
	assert.Equal(t, "10k 2025", doc.Title)
	assert.Len(t, doc.ID, 16)
	assert.Equal(t, 0, doc.Revision) // assigned later by the pipeline
	assert.False(t, doc.IngestedAt.IsZero())
}

func TestRegistryStableID(t *testing.T) {
	reg := newTestRegistry()
	raw := &domain.RawDocument{
		SourceURI: "upload://a.txt",
		MIMEType:  "text/plain",
		Content:   []byte("same content"),
	}

	doc1, err := reg.Normalise(context.Background(), raw)
	require.NoError(t, err)
	doc2, err := reg.Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, doc1.ID, doc2.ID)
}

func TestRegistryEmptyDocument(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Normalise(context.Background(), &domain.RawDocument{
		SourceURI: "upload://blank.txt",
		MIMEType:  "text/plain",
		Content:   []byte("   \n\t  "),
	})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestRegistryUnsupportedFormat(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Normalise(context.Background(), &domain.RawDocument{
		SourceURI: "upload://scan.pdf",
		MIMEType:  "application/pdf",
		Content:   []byte("%PDF-1.4"),
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRegistryInvalidEncoding(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Normalise(context.Background(), &domain.RawDocument{
		SourceURI: "upload://binary.txt",
		MIMEType:  "text/plain",
		Content:   []byte{0xff, 0xfe, 0xfd},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRegistrySelectsByPriority(t *testing.T) {
	reg := newTestRegistry()

	doc, err := reg.Normalise(context.Background(), &domain.RawDocument{
		SourceURI: "https://news.example.com/gdpr-fine",
		MIMEType:  "text/html",
		Content:   []byte("<html><head><title>GDPR Fine</title></head><body><p>Regulator fines firm.</p></body></html>"),
	})
	require.NoError(t, err)

	assert.Equal(t, "GDPR Fine", doc.Title)
	assert.Equal(t, "Regulator fines firm.", doc.Text)
}
