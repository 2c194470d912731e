package domain

// MetricsSnapshot holds best-effort aggregate counts for the query surface.
// Snapshot production never fails on downstream transient errors; absent
// counts are reported as zero.
type MetricsSnapshot struct {
	// DocumentsIngested is the total number of revisions committed.
	DocumentsIngested int

	// DocumentsRejected is the number of inputs rejected by normalisation.
	DocumentsRejected int

	// IndexSize is the number of live index entries.
	IndexSize int

	// AlertsByTier counts fired alert events per tier label.
	AlertsByTier map[string]int

	// AlertsByJurisdiction counts fired alert events per jurisdiction.
	AlertsByJurisdiction map[string]int

	// AlertsSuppressed is the number of assessments suppressed by dedup.
	AlertsSuppressed int
}
