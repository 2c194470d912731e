// Package normalisers provides implementations of the Normaliser interface
// for the document formats the pipeline accepts. Each normaliser knows how
// to extract clean text from a specific MIME type.
//
// Normalisers are registered with the Registry at startup; the Registry
// produces the canonical Document record.
package normalisers
