package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is the canonical record produced by normalisation.
// It is immutable once created; a newer revision supersedes but never
// deletes a prior one, so the full revision history remains auditable.
type Document struct {
	// ID is the stable identifier derived from the source identity.
	// All revisions of the same logical document share an ID.
	ID string

	// SourceURI is the original location of the raw input (file path,
	// feed URL, upload name).
	SourceURI string

	// Title is the human-readable title extracted during normalisation.
	Title string

	// Text is the full normalised text content.
	Text string

	// IngestedAt is when the document entered the pipeline.
	IngestedAt time.Time

	// Revision is the monotonic counter for this ID, starting at 1.
	Revision int

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any
}

// RawDocument represents opaque inbound bytes before normalisation.
type RawDocument struct {
	// SourceURI is the original location of the input.
	SourceURI string

	// MIMEType is the declared content type (e.g., "text/plain").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains feed-specific key-value pairs.
	Metadata map[string]any
}

// DocumentID derives the stable identifier for a document from its source
// identity. All revisions of the same logical document share an ID; the
// text of each revision is fingerprinted separately by ContentHash.
func DocumentID(sourceURI string) string {
	h := sha256.New()
	h.Write([]byte("doc\x00"))
	h.Write([]byte(sourceURI))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ContentHash fingerprints normalised text. Two revisions with equal
// hashes carry identical content, which makes re-ingestion idempotent.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
