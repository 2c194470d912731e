package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates the raw input cannot be decoded to text.
	// The document is rejected, not retried.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument indicates normalisation produced blank text.
	// The document is rejected, not retried.
	ErrEmptyDocument = errors.New("empty document")

	// ErrScoringUnavailable indicates the risk scorer could not produce a
	// score (model outage or timeout). Scoring fails closed: the document is
	// never silently treated as compliant.
	ErrScoringUnavailable = errors.New("scoring unavailable")

	// ErrNoRelevantContext indicates retrieval returned nothing usable for
	// a question after filtering.
	ErrNoRelevantContext = errors.New("no relevant context")

	// ErrGenerationUnavailable indicates the generation collaborator failed.
	// The error propagates rather than producing an unattributed answer.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrStaleRevision indicates an update carried a revision that is not
	// newer than the one already committed. The update is discarded and
	// logged; it is not surfaced as a pipeline failure.
	ErrStaleRevision = errors.New("stale revision")

	// ErrDeliveryFailed indicates a notification channel exhausted its
	// retries. Recorded on the alert event; does not fail the pipeline.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// IsRejection reports whether err is a per-document input rejection
// (malformed or empty input) rather than a transient failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrInvalidInput)
}

// IsTransient reports whether err is a retryable outage of an external
// collaborator rather than a rejection of the input itself.
func IsTransient(err error) bool {
	return errors.Is(err, ErrScoringUnavailable) ||
		errors.Is(err, ErrGenerationUnavailable)
}
