package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/veridian-labs/reguard/internal/analysis"
	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/core/ports/driving"
	"github.com/veridian-labs/reguard/internal/logger"
	"github.com/veridian-labs/reguard/internal/metrics"
)

const fragmentLength = 240

// reindexLimit bounds how many documents a startup reindex loads.
const reindexLimit = 100000

// PipelineConfig configures the ingestion worker pool.
type PipelineConfig struct {
	// Workers is the number of concurrent pipeline workers.
	Workers int

	// QueueSize bounds the submission queue; Submit blocks when full.
	QueueSize int
}

// DefaultPipelineConfig returns the default pool sizing.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{Workers: 4, QueueSize: 64}
}

// PipelineService runs the ingestion stages: normalise, classify, score,
// then commit (persist, index, dispatch) under a per-document lock.
//
// Enrichment runs outside the lock; only the commit is serialised per
// document ID, where the next revision number is assigned against the
// store. Re-submitting unchanged content is a no-op.
type PipelineService struct {
	registry    driven.NormaliserRegistry
	classifier  *JurisdictionClassifier
	scorer      *RiskScorer
	docs        driven.DocumentStore
	assessments driven.AssessmentStore
	index       driven.HybridIndex
	embedder    driven.EmbeddingService
	dispatcher  *AlertDispatcher
	cfg         PipelineConfig

	jobs    chan domain.RawDocument
	wg      sync.WaitGroup
	started bool
	startMu sync.Mutex

	locks  sync.Map // document ID -> *sync.Mutex
	statMu sync.Mutex
	stats  driving.PipelineStats

	now func() time.Time
}

// NewPipelineService wires the ingestion pipeline. The embedder may be
// nil; entries are then indexed for lexical retrieval only.
func NewPipelineService(
	registry driven.NormaliserRegistry,
	classifier *JurisdictionClassifier,
	scorer *RiskScorer,
	docs driven.DocumentStore,
	assessments driven.AssessmentStore,
	index driven.HybridIndex,
	embedder driven.EmbeddingService,
	dispatcher *AlertDispatcher,
	cfg PipelineConfig,
) *PipelineService {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultPipelineConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultPipelineConfig().QueueSize
	}
	return &PipelineService{
		registry:    registry,
		classifier:  classifier,
		scorer:      scorer,
		docs:        docs,
		assessments: assessments,
		index:       index,
		embedder:    embedder,
		dispatcher:  dispatcher,
		cfg:         cfg,
		jobs:        make(chan domain.RawDocument, cfg.QueueSize),
		now:         time.Now,
	}
}

// Start implements driving.Pipeline.
func (p *PipelineService) Start(ctx context.Context) error {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.started {
		return errors.New("pipeline already started")
	}
	p.started = true

	logger.Section("Pipeline")
	logger.Info("Starting %d pipeline workers (queue %d)", p.cfg.Workers, p.cfg.QueueSize)

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	return nil
}

// Stop implements driving.Pipeline. It drains the queue, waits for
// in-flight documents, then waits for outstanding alert deliveries.
func (p *PipelineService) Stop() {
	p.startMu.Lock()
	if !p.started {
		p.startMu.Unlock()
		return
	}
	p.started = false
	p.startMu.Unlock()

	close(p.jobs)
	p.wg.Wait()
	if p.dispatcher != nil {
		p.dispatcher.Drain()
	}
	logger.Info("Pipeline stopped")
}

// Submit implements driving.Pipeline.
func (p *PipelineService) Submit(ctx context.Context, raw domain.RawDocument) error {
	if raw.SourceURI == "" {
		return fmt.Errorf("%w: missing source URI", domain.ErrInvalidInput)
	}
	select {
	case p.jobs <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Analyze implements driving.Pipeline. It runs the enrichment stages and
// returns the assessment without persisting, indexing or alerting.
func (p *PipelineService) Analyze(
	ctx context.Context, raw domain.RawDocument,
) (*domain.RiskAssessment, error) {
	doc, err := p.registry.Normalise(ctx, &raw)
	if err != nil {
		return nil, err
	}
	tags := p.classifier.Classify(doc)
	return p.scorer.Score(ctx, doc, tags)
}

// Stats implements driving.Pipeline.
func (p *PipelineService) Stats() driving.PipelineStats {
	p.statMu.Lock()
	defer p.statMu.Unlock()
	stats := p.stats
	stats.Queued = len(p.jobs)
	return stats
}

func (p *PipelineService) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case raw, ok := <-p.jobs:
			if !ok {
				return
			}
			p.process(ctx, raw)
		case <-ctx.Done():
			return
		}
	}
}

// process runs one raw document through the full pipeline. Errors are
// absorbed into counters; one bad document never stops the stream.
func (p *PipelineService) process(ctx context.Context, raw domain.RawDocument) {
	doc, err := p.registry.Normalise(ctx, &raw)
	if err != nil {
		if domain.IsRejection(err) {
			logger.Debug("Rejected %s: %v", raw.SourceURI, err)
			p.count(func(s *driving.PipelineStats) { s.Rejected++ })
			metrics.IncRejected()
			return
		}
		logger.Error("Normalising %s: %v", raw.SourceURI, err)
		p.count(func(s *driving.PipelineStats) { s.Failed++ })
		return
	}

	tags := p.classifier.Classify(doc)

	assessment, err := p.scorer.Score(ctx, doc, tags)
	if err != nil {
		if domain.IsTransient(err) {
			logger.Warn("Scoring %s unavailable, failing closed: %v", doc.ID, err)
		} else {
			logger.Error("Scoring %s: %v", doc.ID, err)
		}
		p.count(func(s *driving.PipelineStats) { s.Failed++ })
		return
	}

	// Embedding is the slow enrichment stage; keep it outside the
	// commit lock.
	var embedding []float32
	if p.embedder != nil {
		embedding, err = p.embedder.Embed(ctx, doc.Text)
		if err != nil {
			logger.Warn("Embedding %s failed, indexing lexically only: %v", doc.ID, err)
			embedding = nil
		}
	}

	if err := p.commit(ctx, doc, assessment, tags, embedding); err != nil {
		logger.Error("Committing %s: %v", doc.ID, err)
		p.count(func(s *driving.PipelineStats) { s.Failed++ })
	}
}

// commit serialises per document ID: assigns the next revision, persists
// the document and assessment, swaps the index entry, and hands the
// assessment to the dispatcher.
func (p *PipelineService) commit(
	ctx context.Context,
	doc *domain.Document,
	assessment *domain.RiskAssessment,
	tags []domain.JurisdictionTag,
	embedding []float32,
) error {
	mu := p.lockFor(doc.ID)
	mu.Lock()
	defer mu.Unlock()

	latest, err := p.docs.LatestRevision(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("looking up latest revision: %w", err)
	}

	if latest > 0 {
		prev, err := p.docs.GetDocument(ctx, doc.ID, latest)
		if err != nil {
			return fmt.Errorf("loading revision %d: %w", latest, err)
		}
		if prev.Metadata["content_hash"] == doc.Metadata["content_hash"] {
			logger.Debug("Unchanged content for %s, skipping", doc.ID)
			return nil
		}
	}

	doc.Revision = latest + 1
	assessment.Revision = doc.Revision

	if err := p.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	if err := p.assessments.SaveAssessment(ctx, assessment); err != nil {
		return fmt.Errorf("saving assessment: %w", err)
	}

	terms, length := analysis.TermFrequencies(doc.Text)
	entry := domain.IndexEntry{
		DocumentID:    doc.ID,
		Revision:      doc.Revision,
		Terms:         terms,
		Length:        length,
		Embedding:     embedding,
		Fragment:      fragmentOf(doc.Text),
		Jurisdictions: tags,
		IngestedAt:    doc.IngestedAt,
	}
	if err := p.index.Upsert(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrStaleRevision) {
			p.count(func(s *driving.PipelineStats) { s.Stale++ })
			return nil
		}
		return fmt.Errorf("indexing: %w", err)
	}

	if p.dispatcher != nil {
		if _, err := p.dispatcher.Evaluate(ctx, assessment); err != nil {
			// Alerting must not roll back the committed revision.
			logger.Error("Dispatching alert for %s: %v", doc.ID, err)
		}
	}

	p.count(func(s *driving.PipelineStats) { s.Processed++ })
	metrics.IncIngested()
	if size, err := p.index.Size(ctx); err == nil {
		metrics.SetIndexSize(size)
	}

	logger.Info("Committed %s rev %d (%s)", doc.ID, doc.Revision, assessment.Tier)
	return nil
}

// Reindex rebuilds the retrieval index from the document store. The
// index lives in memory and does not survive a restart; callers run
// this once at startup before serving queries. Returns the number of
// entries restored.
func (p *PipelineService) Reindex(ctx context.Context) (int, error) {
	docs, err := p.docs.ListDocuments(ctx, driven.DocumentFilter{Limit: reindexLimit})
	if err != nil {
		return 0, fmt.Errorf("listing documents: %w", err)
	}

	restored := 0
	for i := range docs {
		doc := &docs[i]

		tags := p.classifier.Classify(doc)
		if assessment, err := p.assessments.LatestAssessment(ctx, doc.ID); err == nil {
			tags = assessment.Jurisdictions
		}

		var embedding []float32
		if p.embedder != nil {
			embedding, err = p.embedder.Embed(ctx, doc.Text)
			if err != nil {
				logger.Warn("Embedding %s during reindex failed, indexing lexically only: %v", doc.ID, err)
				embedding = nil
			}
		}

		terms, length := analysis.TermFrequencies(doc.Text)
		entry := domain.IndexEntry{
			DocumentID:    doc.ID,
			Revision:      doc.Revision,
			Terms:         terms,
			Length:        length,
			Embedding:     embedding,
			Fragment:      fragmentOf(doc.Text),
			Jurisdictions: tags,
			IngestedAt:    doc.IngestedAt,
		}
		if err := p.index.Upsert(ctx, entry); err != nil {
			if errors.Is(err, domain.ErrStaleRevision) {
				continue
			}
			return restored, fmt.Errorf("indexing %s: %w", doc.ID, err)
		}
		restored++
	}

	if size, err := p.index.Size(ctx); err == nil {
		metrics.SetIndexSize(size)
	}
	logger.Info("Reindexed %d documents", restored)
	return restored, nil
}

func (p *PipelineService) lockFor(id string) *sync.Mutex {
	mu, _ := p.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (p *PipelineService) count(update func(*driving.PipelineStats)) {
	p.statMu.Lock()
	update(&p.stats)
	p.statMu.Unlock()
}

func fragmentOf(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= fragmentLength {
		return text
	}
	cut := text[:fragmentLength]
	if i := strings.LastIndexByte(cut, ' '); i > fragmentLength/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
