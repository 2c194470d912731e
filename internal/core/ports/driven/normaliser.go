package driven

import (
	"context"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// Normaliser converts raw inbound bytes of specific formats into clean text.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred) when
	// several normalisers support the same MIME type.
	Priority() int

	// Normalise extracts title and text from the raw input.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of format-specific normalisation.
type NormaliseResult struct {
	// Title is the extracted human-readable title.
	Title string

	// Text is the extracted content with non-content artifacts stripped.
	Text string
}

// NormaliserRegistry selects a normaliser by MIME type and produces the
// canonical Document. The Revision field is left at zero; the pipeline
// assigns it against the document store.
type NormaliserRegistry interface {
	// Normalise converts a raw document to its canonical form.
	// Returns ErrUnsupportedFormat when no normaliser handles the input
	// and ErrEmptyDocument when the normalised text is blank.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
