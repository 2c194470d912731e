package normalisers

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects a normaliser by MIME type and assembles the canonical
// Document record. Selection prefers the highest-priority normaliser that
// supports the exact MIME type.
type Registry struct {
	normalisers []driven.Normaliser
	now         func() time.Time
}

// NewRegistry creates a registry with the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	return &Registry{
		normalisers: normalisers,
		now:         time.Now,
	}
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	r.normalisers = append(r.normalisers, n)
}

// Normalise converts a raw document to its canonical form.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil || raw.SourceURI == "" {
		return nil, fmt.Errorf("%w: missing source URI", domain.ErrInvalidInput)
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s is not valid text", domain.ErrUnsupportedFormat, raw.SourceURI)
	}

	normaliser := r.selectNormaliser(raw.MIMEType)
	if normaliser == nil {
		return nil, fmt.Errorf("%w: no normaliser for %q", domain.ErrUnsupportedFormat, raw.MIMEType)
	}

	result, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", raw.SourceURI, err)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.SourceURI)
	}

	doc := &domain.Document{
		ID:         domain.DocumentID(raw.SourceURI),
		SourceURI:  raw.SourceURI,
		Title:      result.Title,
		Text:       text,
		IngestedAt: r.now(),
		Metadata:   copyMetadata(raw.Metadata),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["content_hash"] = domain.ContentHash(text)

	logger.Debug("Normalised %s: id=%s, %d bytes", raw.SourceURI, doc.ID, len(text))
	return doc, nil
}

// selectNormaliser returns the highest-priority normaliser supporting the
// MIME type, or nil when none does. The MIME type may carry parameters
// ("text/plain; charset=utf-8") which are ignored for matching.
func (r *Registry) selectNormaliser(mimeType string) driven.Normaliser {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	var best driven.Normaliser
	for _, n := range r.normalisers {
		for _, supported := range n.SupportedMIMETypes() {
			if supported != mimeType {
				continue
			}
			if best == nil || n.Priority() > best.Priority() {
				best = n
			}
		}
	}
	return best
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
