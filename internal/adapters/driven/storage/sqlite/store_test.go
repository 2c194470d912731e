package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDoc(id string, revision int) *domain.Document {
	return &domain.Document{
		ID:         id,
		Revision:   revision,
		SourceURI:  "file:///intake/" + id + ".txt",
		Title:      "Report " + id,
		Text:       "Quarterly filing for " + id,
		Metadata:   map[string]any{"mime_type": "text/plain"},
		IngestedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(revision) * time.Hour),
	}
}

func sampleAssessment(docID string, revision int, tier domain.RiskTier) *domain.RiskAssessment {
	return &domain.RiskAssessment{
		DocumentID:    docID,
		Revision:      revision,
		Score:         0.85,
		Tier:          tier,
		Rationale:     "Document contains 2 compliance-related triggers including fraud, bribery.",
		Categories:    []string{"Fraud", "Corruption"},
		Findings:      []string{"fraud", "bribery"},
		Jurisdictions: []domain.JurisdictionTag{domain.JurisdictionUS},
		ComputedAt:    time.Date(2026, 6, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestStoreMigratesIdempotently(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Reopening must not re-run applied migrations.
	second, err := NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("a", 1)))
	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("a", 2)))

	loaded, err := docs.GetDocument(ctx, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, "Report a", loaded.Title)
	assert.Equal(t, "text/plain", loaded.Metadata["mime_type"])

	latest, err := docs.LatestRevision(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, latest)

	latest, err = docs.LatestRevision(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, latest)

	_, err = docs.GetDocument(ctx, "a", 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDocumentStoreSaveIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("a", 1)))
	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("a", 1)))

	count, err := docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentStoreListFilters(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	assessments := store.AssessmentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("risky", 1)))
	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("clean", 1)))
	require.NoError(t, assessments.SaveAssessment(ctx, sampleAssessment("risky", 1, domain.TierHigh)))

	clean := sampleAssessment("clean", 1, domain.TierCompliant)
	clean.Jurisdictions = []domain.JurisdictionTag{domain.JurisdictionGlobal}
	require.NoError(t, assessments.SaveAssessment(ctx, clean))

	all, err := docs.ListDocuments(ctx, driven.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	high := domain.TierHigh
	risky, err := docs.ListDocuments(ctx, driven.DocumentFilter{MinTier: &high})
	require.NoError(t, err)
	require.Len(t, risky, 1)
	assert.Equal(t, "risky", risky[0].ID)

	us, err := docs.ListDocuments(ctx, driven.DocumentFilter{Jurisdiction: domain.JurisdictionUS})
	require.NoError(t, err)
	require.Len(t, us, 1)
	assert.Equal(t, "risky", us[0].ID)

	named, err := docs.ListDocuments(ctx, driven.DocumentFilter{Contains: "report risky"})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "risky", named[0].ID)
}

func TestDocumentStoreListReturnsLatestRevisionOnly(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("a", 1)))
	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("a", 2)))

	listed, err := docs.ListDocuments(ctx, driven.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 2, listed[0].Revision)
}

func TestAssessmentStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	assessments := store.AssessmentStore()
	ctx := context.Background()

	// The document row must exist before its assessment.
	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("a", 1)))
	require.NoError(t, docs.SaveDocument(ctx, sampleDoc("a", 2)))

	require.NoError(t, assessments.SaveAssessment(ctx, sampleAssessment("a", 1, domain.TierMedium)))
	require.NoError(t, assessments.SaveAssessment(ctx, sampleAssessment("a", 2, domain.TierHigh)))

	first, err := assessments.GetAssessment(ctx, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TierMedium, first.Tier)
	assert.Equal(t, []string{"fraud", "bribery"}, first.Findings)
	assert.Equal(t, []domain.JurisdictionTag{domain.JurisdictionUS}, first.Jurisdictions)

	latest, err := assessments.LatestAssessment(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Revision)
	assert.Equal(t, domain.TierHigh, latest.Tier)

	_, err = assessments.LatestAssessment(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssessmentStoreRejectsOrphan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// No document ("ghost", 1) exists, so the foreign key rejects the row.
	err := store.AssessmentStore().SaveAssessment(ctx, sampleAssessment("ghost", 1, domain.TierLow))
	assert.Error(t, err)
}

func TestAlertStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	alerts := store.AlertStore()
	ctx := context.Background()

	event := &domain.AlertEvent{
		ID:            "evt-1",
		DocumentID:    "doc-1",
		Revision:      1,
		Tier:          domain.TierHigh,
		DedupKey:      domain.AlertDedupKey("doc-1", domain.TierHigh),
		Jurisdictions: []domain.JurisdictionTag{domain.JurisdictionEU},
		Message:       "[HIGH] Document doc-1 (rev 1) scored 0.85.",
		Deliveries: []domain.ChannelDelivery{
			{Channel: domain.ChannelEmail, State: domain.DeliveryPending},
		},
		CreatedAt: time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC),
	}
	require.NoError(t, alerts.SaveEvent(ctx, event))

	loaded, err := alerts.LatestByDedupKey(ctx, event.DedupKey)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", loaded.ID)
	assert.Equal(t, domain.TierHigh, loaded.Tier)
	assert.Equal(t, []domain.JurisdictionTag{domain.JurisdictionEU}, loaded.Jurisdictions)

	delivered := []domain.ChannelDelivery{
		{Channel: domain.ChannelEmail, State: domain.DeliveryDelivered, Attempts: 1},
	}
	require.NoError(t, alerts.UpdateDeliveries(ctx, "evt-1", delivered))

	loaded, err = alerts.LatestByDedupKey(ctx, event.DedupKey)
	require.NoError(t, err)
	assert.True(t, loaded.Resolved())

	assert.ErrorIs(t, alerts.UpdateDeliveries(ctx, "missing", delivered), domain.ErrNotFound)

	events, err := alerts.ListEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
