package cli

import (
	"context"
	"fmt"

	cachemem "github.com/veridian-labs/reguard/internal/adapters/driven/cache/memory"
	"github.com/veridian-labs/reguard/internal/adapters/driven/config/file"
	hashembed "github.com/veridian-labs/reguard/internal/adapters/driven/embedding/hashing"
	openaiembed "github.com/veridian-labs/reguard/internal/adapters/driven/embedding/openai"
	"github.com/veridian-labs/reguard/internal/adapters/driven/generation/extractive"
	openaigen "github.com/veridian-labs/reguard/internal/adapters/driven/generation/openai"
	indexmem "github.com/veridian-labs/reguard/internal/adapters/driven/index/memory"
	lognotify "github.com/veridian-labs/reguard/internal/adapters/driven/notify/log"
	"github.com/veridian-labs/reguard/internal/adapters/driven/notify/webhook"
	"github.com/veridian-labs/reguard/internal/adapters/driven/riskmodel/generative"
	"github.com/veridian-labs/reguard/internal/adapters/driven/riskmodel/lexicon"
	storagemem "github.com/veridian-labs/reguard/internal/adapters/driven/storage/memory"
	"github.com/veridian-labs/reguard/internal/adapters/driven/storage/sqlite"
	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/core/services"
	"github.com/veridian-labs/reguard/internal/normalisers"
	"github.com/veridian-labs/reguard/internal/normalisers/html"
	"github.com/veridian-labs/reguard/internal/normalisers/markdown"
	"github.com/veridian-labs/reguard/internal/normalisers/plaintext"
)

// app holds the wired service graph for one command invocation.
type app struct {
	cfg *file.Config

	docs        driven.DocumentStore
	assessments driven.AssessmentStore
	alerts      driven.AlertStore
	index       driven.HybridIndex

	pipeline   *services.PipelineService
	search     *services.RetrievalService
	answerer   *services.Answerer
	metrics    *services.MetricsAggregator
	dispatcher *services.AlertDispatcher

	store *sqlite.Store // nil for the memory backend
}

// newApp builds every adapter and service from the configuration.
func newApp(cfg *file.Config) (*app, error) {
	a := &app{cfg: cfg}

	switch cfg.Storage.Backend {
	case "sqlite":
		store, err := sqlite.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		a.store = store
		a.docs = store.DocumentStore()
		a.assessments = store.AssessmentStore()
		a.alerts = store.AlertStore()
	case "memory":
		assessments := storagemem.NewAssessmentStore()
		a.assessments = assessments
		a.docs = storagemem.NewDocumentStore(assessments)
		a.alerts = storagemem.NewAlertStore()
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, cfg.Storage.Backend)
	}

	a.index = indexmem.NewHybridIndex()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	var model driven.RiskModel
	switch cfg.Scoring.Model {
	case "lexicon":
		model = lexicon.New()
	case "generative":
		model = generative.New(generator)
	case "none":
	}
	scorer := services.NewRiskScorer(model, services.ScorerConfig{
		ModelWeight:  cfg.Scoring.ModelWeight,
		ModelTimeout: cfg.Scoring.ModelTimeout,
	})

	dispatcher, err := buildDispatcher(cfg, a.alerts)
	if err != nil {
		a.close()
		return nil, err
	}
	a.dispatcher = dispatcher

	registry := normalisers.NewRegistry(plaintext.New(), markdown.New(), html.New())
	a.pipeline = services.NewPipelineService(
		registry,
		services.NewJurisdictionClassifier(),
		scorer,
		a.docs,
		a.assessments,
		a.index,
		embedder,
		dispatcher,
		services.PipelineConfig{
			Workers:   cfg.Pipeline.Workers,
			QueueSize: cfg.Pipeline.QueueSize,
		},
	)

	retrievalCfg := services.RetrievalConfig{
		Fusion:         domain.FusionWeightedSum,
		SemanticWeight: cfg.Search.SemanticWeight,
		LexicalWeight:  cfg.Search.LexicalWeight,
	}
	if cfg.Search.Fusion == "rrf" {
		retrievalCfg.Fusion = domain.FusionRRF
	}
	a.search = services.NewRetrievalService(a.index, embedder, retrievalCfg)

	answererCfg := services.DefaultAnswererConfig()
	if cfg.Answering.TopK > 0 {
		answererCfg.TopK = cfg.Answering.TopK
	}
	if cfg.Answering.ContextBudget > 0 {
		answererCfg.ContextBudget = cfg.Answering.ContextBudget
	}
	cache := cachemem.NewAnswerCache(cfg.Answering.CacheTTL)
	a.answerer = services.NewAnswerer(a.search, generator, cache, answererCfg)

	a.metrics = services.NewMetricsAggregator(a.docs, a.index, a.alerts, a.pipeline, dispatcher)
	return a, nil
}

// reindex restores the in-memory index from persisted documents.
// A no-op for the memory backend, which starts empty anyway.
func (a *app) reindex(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	_, err := a.pipeline.Reindex(ctx)
	return err
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func buildEmbedder(cfg *file.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "hashing":
		return hashembed.NewEmbeddingService(cfg.Embedding.Dimensions), nil
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, cfg.Embedding.Provider)
	}
}

func buildGenerator(cfg *file.Config) (driven.GenerationService, error) {
	switch cfg.Answering.Provider {
	case "extractive":
		return extractive.NewGenerationService(), nil
	case "openai":
		return openaigen.NewGenerationService(openaigen.Config{
			APIKey:  cfg.Answering.APIKey,
			BaseURL: cfg.Answering.BaseURL,
			Model:   cfg.Answering.Model,
		})
	default:
		return nil, fmt.Errorf("%w: unknown answering provider %q", domain.ErrInvalidInput, cfg.Answering.Provider)
	}
}

func buildDispatcher(cfg *file.Config, alerts driven.AlertStore) (*services.AlertDispatcher, error) {
	threshold, ok := domain.ParseTier(cfg.Alerts.Threshold)
	if !ok {
		return nil, fmt.Errorf("%w: unknown alert threshold %q", domain.ErrInvalidInput, cfg.Alerts.Threshold)
	}

	channels := make([]domain.Channel, 0, len(cfg.Alerts.Channels))
	for _, name := range cfg.Alerts.Channels {
		channel, err := domain.ParseChannel(name)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}

	var notifier driven.Notifier
	if len(cfg.Alerts.Webhooks) > 0 {
		endpoints := make(map[domain.Channel]string, len(cfg.Alerts.Webhooks))
		for name, url := range cfg.Alerts.Webhooks {
			channel, err := domain.ParseChannel(name)
			if err != nil {
				return nil, err
			}
			endpoints[channel] = url
		}
		notifier = webhook.New(webhook.Config{Endpoints: endpoints})
	} else {
		notifier = lognotify.New()
	}

	return services.NewAlertDispatcher(notifier, alerts, services.AlertPolicy{
		Threshold:      threshold,
		Channels:       channels,
		Cooldown:       cfg.Alerts.Cooldown,
		MaxAttempts:    cfg.Alerts.MaxAttempts,
		InitialBackoff: cfg.Alerts.InitialBackoff,
		RatePerSecond:  cfg.Alerts.RatePerSecond,
	})
}
