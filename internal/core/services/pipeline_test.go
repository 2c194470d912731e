package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/normalisers"
	"github.com/veridian-labs/reguard/internal/normalisers/plaintext"
)

type memDocStore struct {
	mu   sync.Mutex
	docs map[string][]*domain.Document
}

func newMemDocStore() *memDocStore {
	return &memDocStore{docs: make(map[string][]*domain.Document)}
}

func (s *memDocStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs[doc.ID] {
		if existing.Revision == doc.Revision {
			return nil
		}
	}
	copied := *doc
	s.docs[doc.ID] = append(s.docs[doc.ID], &copied)
	return nil
}

func (s *memDocStore) GetDocument(ctx context.Context, id string, revision int) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs[id] {
		if doc.Revision == revision {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memDocStore) LatestRevision(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := 0
	for _, doc := range s.docs[id] {
		if doc.Revision > latest {
			latest = doc.Revision
		}
	}
	return latest, nil
}

func (s *memDocStore) ListDocuments(ctx context.Context, filter driven.DocumentFilter) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Document
	for _, revisions := range s.docs {
		var latest *domain.Document
		for _, doc := range revisions {
			if latest == nil || doc.Revision > latest.Revision {
				latest = doc
			}
		}
		if latest != nil {
			out = append(out, *latest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngestedAt.After(out[j].IngestedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memDocStore) CountDocuments(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, revisions := range s.docs {
		total += len(revisions)
	}
	return total, nil
}

type memAssessmentStore struct {
	mu          sync.Mutex
	assessments map[string][]*domain.RiskAssessment
}

func newMemAssessmentStore() *memAssessmentStore {
	return &memAssessmentStore{assessments: make(map[string][]*domain.RiskAssessment)}
}

func (s *memAssessmentStore) SaveAssessment(ctx context.Context, a *domain.RiskAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assessments[a.DocumentID] {
		if existing.Revision == a.Revision {
			return nil
		}
	}
	copied := *a
	s.assessments[a.DocumentID] = append(s.assessments[a.DocumentID], &copied)
	return nil
}

func (s *memAssessmentStore) GetAssessment(ctx context.Context, documentID string, revision int) (*domain.RiskAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assessments[documentID] {
		if a.Revision == revision {
			copied := *a
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memAssessmentStore) LatestAssessment(ctx context.Context, documentID string) (*domain.RiskAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.RiskAssessment
	for _, a := range s.assessments[documentID] {
		if latest == nil || a.Revision > latest.Revision {
			latest = a
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

type fakeIndex struct {
	mu      sync.Mutex
	entries map[string]domain.IndexEntry
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: make(map[string]domain.IndexEntry)}
}

func (i *fakeIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if live, ok := i.entries[entry.DocumentID]; ok && entry.Revision <= live.Revision {
		return domain.ErrStaleRevision
	}
	i.entries[entry.DocumentID] = entry
	return nil
}

func (i *fakeIndex) Remove(ctx context.Context, documentID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.entries, documentID)
	return nil
}

func (i *fakeIndex) Entry(ctx context.Context, documentID string) (*domain.IndexEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	entry, ok := i.entries[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (i *fakeIndex) SearchLexical(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return nil, nil
}

func (i *fakeIndex) SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]domain.SearchHit, error) {
	return nil, nil
}

func (i *fakeIndex) Size(ctx context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.entries), nil
}

type pipelineFixture struct {
	pipeline    *PipelineService
	docs        *memDocStore
	assessments *memAssessmentStore
	index       *fakeIndex
	notifier    *stubNotifier
	dispatcher  *AlertDispatcher
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	docs := newMemDocStore()
	assessments := newMemAssessmentStore()
	index := newFakeIndex()
	notifier := &stubNotifier{}

	policy := testPolicy()
	policy.Channels = []domain.Channel{domain.ChannelEmail}
	dispatcher, err := NewAlertDispatcher(notifier, &memAlertStore{}, policy)
	require.NoError(t, err)

	pipeline := NewPipelineService(
		normalisers.NewRegistry(plaintext.New()),
		NewJurisdictionClassifier(),
		NewRiskScorer(nil, DefaultScorerConfig()),
		docs,
		assessments,
		index,
		nil,
		dispatcher,
		PipelineConfig{Workers: 2, QueueSize: 8},
	)

	return &pipelineFixture{
		pipeline:    pipeline,
		docs:        docs,
		assessments: assessments,
		index:       index,
		notifier:    notifier,
		dispatcher:  dispatcher,
	}
}

func rawText(uri, text string) domain.RawDocument {
	return domain.RawDocument{
		SourceURI: uri,
		MIMEType:  "text/plain",
		Content:   []byte(text),
	}
}

func TestPipelineProcessesAndAlerts(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pipeline.Start(ctx))
	require.NoError(t, f.pipeline.Submit(ctx, rawText(
		"file:///intake/report.txt",
		"The SEC investigation uncovered a money laundering scheme.",
	)))
	f.pipeline.Stop()

	id := domain.DocumentID("file:///intake/report.txt")
	latest, err := f.docs.LatestRevision(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, latest)

	entry, err := f.index.Entry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Revision)
	assert.NotEmpty(t, entry.Terms)
	assert.Contains(t, entry.Jurisdictions, domain.JurisdictionUS)

	assert.Equal(t, 1, f.notifier.sendCount())

	stats := f.pipeline.Stats()
	assert.Equal(t, 1, stats.Processed)
	assert.Zero(t, stats.Rejected)
	assert.Zero(t, stats.Failed)
}

func TestPipelineRejectsEmptyInputWithoutSideEffects(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pipeline.Start(ctx))
	require.NoError(t, f.pipeline.Submit(ctx, rawText("file:///intake/blank.txt", "   \n\t ")))
	f.pipeline.Stop()

	count, err := f.docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	size, err := f.index.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)

	assert.Zero(t, f.notifier.sendCount())
	assert.Equal(t, 1, f.pipeline.Stats().Rejected)
}

func TestPipelineScorerOutageCountsFailedNotRejected(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.scorer = NewRiskScorer(
		&stubRiskModel{err: errors.New("connection refused")},
		DefaultScorerConfig(),
	)
	ctx := context.Background()

	require.NoError(t, f.pipeline.Start(ctx))
	require.NoError(t, f.pipeline.Submit(ctx, rawText(
		"file:///intake/outage.txt",
		"The SEC investigation uncovered a money laundering scheme.",
	)))
	f.pipeline.Stop()

	count, err := f.docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	stats := f.pipeline.Stats()
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, stats.Rejected)
	assert.Zero(t, stats.Processed)
}

func TestPipelineResubmissionIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	raw := rawText("file:///intake/q1.txt", "Routine quarterly filing with no findings.")

	require.NoError(t, f.pipeline.Start(ctx))
	require.NoError(t, f.pipeline.Submit(ctx, raw))
	require.NoError(t, f.pipeline.Submit(ctx, raw))
	f.pipeline.Stop()

	latest, err := f.docs.LatestRevision(ctx, domain.DocumentID(raw.SourceURI))
	require.NoError(t, err)
	assert.Equal(t, 1, latest)
	assert.Equal(t, 1, f.pipeline.Stats().Processed)
}

func TestPipelineNewContentCreatesNewRevision(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	uri := "file:///intake/policy.txt"

	require.NoError(t, f.pipeline.Start(ctx))
	require.NoError(t, f.pipeline.Submit(ctx, rawText(uri, "Original policy text.")))
	f.pipeline.Stop()

	f2 := newPipelineFixture(t)
	f2.docs = f.docs
	f2.pipeline.docs = f.docs
	f2.pipeline.index = f.index

	require.NoError(t, f2.pipeline.Start(ctx))
	require.NoError(t, f2.pipeline.Submit(ctx, rawText(uri, "Revised policy text with new clauses.")))
	f2.pipeline.Stop()

	id := domain.DocumentID(uri)
	latest, err := f.docs.LatestRevision(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)

	entry, err := f.index.Entry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Revision)
}

func TestAnalyzeDoesNotCommit(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	assessment, err := f.pipeline.Analyze(ctx, rawText(
		"file:///intake/preview.txt",
		"Potential sanctions violation flagged by the desk.",
	))
	require.NoError(t, err)
	assert.Equal(t, domain.TierHigh, assessment.Tier)

	count, err := f.docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, f.notifier.sendCount())
}

func TestReindexRestoresEntriesFromStore(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pipeline.Start(ctx))
	require.NoError(t, f.pipeline.Submit(ctx, rawText(
		"file:///intake/sec.txt", "SEC enforcement action on disclosure failures.",
	)))
	require.NoError(t, f.pipeline.Submit(ctx, rawText(
		"file:///intake/gdpr.txt", "GDPR processing audit for the EU entity.",
	)))
	f.pipeline.Stop()

	// A fresh process shares the store but starts with an empty index.
	f2 := newPipelineFixture(t)
	f2.pipeline.docs = f.docs
	f2.pipeline.assessments = f.assessments

	restored, err := f2.pipeline.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	entry, err := f2.index.Entry(ctx, domain.DocumentID("file:///intake/sec.txt"))
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Revision)
	assert.NotEmpty(t, entry.Terms)
	assert.Contains(t, entry.Jurisdictions, domain.JurisdictionUS)

	// Re-running is a no-op: the live revisions are already current.
	restored, err = f2.pipeline.Reindex(ctx)
	require.NoError(t, err)
	assert.Zero(t, restored)
}

func TestPipelineSubmitHonoursContextCancellation(t *testing.T) {
	f := newPipelineFixture(t)

	// Fill the queue without starting workers.
	for i := 0; i < 8; i++ {
		require.NoError(t, f.pipeline.Submit(context.Background(), rawText("file:///a.txt", "x")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := f.pipeline.Submit(ctx, rawText("file:///b.txt", "y"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
