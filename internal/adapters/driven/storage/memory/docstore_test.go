package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

func doc(id string, revision int, ingested time.Time) *domain.Document {
	return &domain.Document{
		ID:         id,
		SourceURI:  "file:///intake/" + id + ".txt",
		Title:      "Report " + id,
		Text:       "body of " + id,
		Revision:   revision,
		IngestedAt: ingested,
	}
}

func TestDocumentStoreRevisions(t *testing.T) {
	store := NewDocumentStore(nil)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveDocument(ctx, doc("a", 1, now)))
	require.NoError(t, store.SaveDocument(ctx, doc("a", 2, now.Add(time.Minute))))

	latest, err := store.LatestRevision(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, latest)

	first, err := store.GetDocument(ctx, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Revision)

	_, err = store.GetDocument(ctx, "a", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDocumentStoreSaveIsIdempotent(t *testing.T) {
	store := NewDocumentStore(nil)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, doc("a", 1, time.Now())))
	require.NoError(t, store.SaveDocument(ctx, doc("a", 1, time.Now())))

	count, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentStoreUnknownID(t *testing.T) {
	store := NewDocumentStore(nil)
	latest, err := store.LatestRevision(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, latest)
}

func TestDocumentStoreListNewestFirst(t *testing.T) {
	store := NewDocumentStore(nil)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveDocument(ctx, doc("old", 1, base)))
	require.NoError(t, store.SaveDocument(ctx, doc("new", 1, base.Add(time.Hour))))

	docs, err := store.ListDocuments(ctx, driven.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].ID)
}

func TestDocumentStoreListReturnsOnlyLatestRevision(t *testing.T) {
	store := NewDocumentStore(nil)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveDocument(ctx, doc("a", 1, base)))
	require.NoError(t, store.SaveDocument(ctx, doc("a", 2, base.Add(time.Hour))))

	docs, err := store.ListDocuments(ctx, driven.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 2, docs[0].Revision)
}

func TestDocumentStoreListTierFilter(t *testing.T) {
	assessments := NewAssessmentStore()
	store := NewDocumentStore(assessments)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveDocument(ctx, doc("risky", 1, base)))
	require.NoError(t, store.SaveDocument(ctx, doc("clean", 1, base)))

	require.NoError(t, assessments.SaveAssessment(ctx, &domain.RiskAssessment{
		DocumentID: "risky", Revision: 1, Tier: domain.TierHigh,
		Jurisdictions: []domain.JurisdictionTag{domain.JurisdictionUS},
	}))
	require.NoError(t, assessments.SaveAssessment(ctx, &domain.RiskAssessment{
		DocumentID: "clean", Revision: 1, Tier: domain.TierCompliant,
		Jurisdictions: []domain.JurisdictionTag{domain.JurisdictionGlobal},
	}))

	high := domain.TierHigh
	docs, err := store.ListDocuments(ctx, driven.DocumentFilter{MinTier: &high})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "risky", docs[0].ID)

	docs, err = store.ListDocuments(ctx, driven.DocumentFilter{Jurisdiction: domain.JurisdictionUS})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "risky", docs[0].ID)
}

func TestDocumentStoreListContainsFilter(t *testing.T) {
	store := NewDocumentStore(nil)
	ctx := context.Background()

	target := doc("a", 1, time.Now())
	target.Text = "suspicious transfer to an offshore account"
	require.NoError(t, store.SaveDocument(ctx, target))
	require.NoError(t, store.SaveDocument(ctx, doc("b", 1, time.Now())))

	docs, err := store.ListDocuments(ctx, driven.DocumentFilter{Contains: "OFFSHORE"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].ID)
}
