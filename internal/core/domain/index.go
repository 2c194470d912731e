package domain

import "time"

// IndexEntry is the retrievable form of one document revision.
// Exactly one live entry exists per document ID; upserting a newer revision
// atomically replaces the previous entry in query-time structures.
type IndexEntry struct {
	// DocumentID identifies the indexed document.
	DocumentID string

	// Revision is the document revision the entry was built from.
	Revision int

	// Terms maps each lexical term to its frequency in the text.
	Terms map[string]int

	// Length is the total token count, used for length normalisation.
	Length int

	// Embedding is the fixed-dimension semantic vector.
	Embedding []float32

	// Fragment is a short excerpt kept for result display.
	Fragment string

	// Jurisdictions are the tags assigned to this revision.
	Jurisdictions []JurisdictionTag

	// IngestedAt is the document's ingestion time.
	IngestedAt time.Time
}
