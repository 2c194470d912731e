package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/core/ports/driving"
	"github.com/veridian-labs/reguard/internal/logger"
)

// AnswererConfig configures grounded answer generation.
type AnswererConfig struct {
	// TopK is the number of fragments retrieved as context.
	TopK int

	// ContextBudget caps the total characters of fragment text placed
	// in the prompt. Lowest-ranked fragments are truncated first.
	ContextBudget int

	// GenerateTimeout bounds one generation call.
	GenerateTimeout time.Duration

	// MaxTokens and Temperature pass through to the generation call.
	MaxTokens   int
	Temperature float64
}

// DefaultAnswererConfig returns the default answering configuration.
func DefaultAnswererConfig() AnswererConfig {
	return AnswererConfig{
		TopK:            5,
		ContextBudget:   6000,
		GenerateTimeout: 30 * time.Second,
		MaxTokens:       512,
		Temperature:     0.1,
	}
}

// Answerer composes grounded answers: retrieve top fragments, assemble a
// prompt under the context budget, generate, and return the answer with
// its source document IDs. A cache, when configured, short-circuits
// repeated identical queries.
type Answerer struct {
	search    driving.SearchService
	generator driven.GenerationService
	cache     driven.AnswerCache
	cfg       AnswererConfig
}

// NewAnswerer creates an answer service. The cache may be nil.
func NewAnswerer(
	search driving.SearchService,
	generator driven.GenerationService,
	cache driven.AnswerCache,
	cfg AnswererConfig,
) *Answerer {
	return &Answerer{search: search, generator: generator, cache: cache, cfg: cfg}
}

// Answer implements driving.AnswerService.
func (a *Answerer) Answer(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if opts.K <= 0 {
		opts.K = a.cfg.TopK
	}

	key := answerCacheKey(query, opts)
	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, key); ok {
			logger.Debug("Answer cache hit for %q", query)
			return cached, nil
		}
	}

	hits, err := a.search.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: no documents matched %q", domain.ErrNoRelevantContext, query)
	}

	prompt := a.buildPrompt(query, hits)

	genCtx := ctx
	if a.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, a.cfg.GenerateTimeout)
		defer cancel()
	}

	text, err := a.generator.Generate(genCtx, prompt, driven.GenerateOptions{
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrGenerationUnavailable, err)
	}

	answer := &domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: sourceIDs(hits),
	}
	if a.cache != nil {
		a.cache.Put(ctx, key, answer)
	}
	return answer, nil
}

// buildPrompt assembles the grounded prompt. Fragments are included in
// rank order; when the budget runs out the lowest-ranked fragments are
// truncated or dropped first.
func (a *Answerer) buildPrompt(query string, hits []domain.SearchHit) string {
	fragments := budgetFragments(hits, a.cfg.ContextBudget)

	var b strings.Builder
	b.WriteString("You are a compliance analyst assistant. Answer the question using only the numbered excerpts below. ")
	b.WriteString("Cite excerpts as [1], [2] and so on. If the excerpts do not contain the answer, say so.\n\n")

	n := 0
	for i, fragment := range fragments {
		if fragment == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "[%d] (document %s)\n%s\n\n", n, hits[i].DocumentID, fragment)
	}

	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\nAnswer:")
	return b.String()
}

// budgetFragments fits the hits' fragments into the character budget.
// Rank order is preserved; overflow is taken from the tail.
func budgetFragments(hits []domain.SearchHit, budget int) []string {
	fragments := make([]string, len(hits))
	total := 0
	for i, hit := range hits {
		fragments[i] = hit.Fragment
		total += len(hit.Fragment)
	}
	if budget <= 0 || total <= budget {
		return fragments
	}

	for i := len(fragments) - 1; i >= 0 && total > budget; i-- {
		over := total - budget
		if over >= len(fragments[i]) {
			total -= len(fragments[i])
			fragments[i] = ""
			continue
		}
		// Truncate on a rune boundary so the tail never ends mid-character.
		cut := len(fragments[i]) - over
		for cut > 0 && !utf8.RuneStart(fragments[i][cut]) {
			cut--
		}
		total -= len(fragments[i]) - cut
		fragments[i] = fragments[i][:cut]
	}
	return fragments
}

func sourceIDs(hits []domain.SearchHit) []string {
	seen := make(map[string]bool, len(hits))
	var ids []string
	for _, hit := range hits {
		if !seen[hit.DocumentID] {
			seen[hit.DocumentID] = true
			ids = append(ids, hit.DocumentID)
		}
	}
	return ids
}

// answerCacheKey derives a stable key from the query and every option
// that changes the retrieved context.
func answerCacheKey(query string, opts domain.SearchOptions) string {
	tags := make([]string, len(opts.Jurisdictions))
	for i, tag := range opts.Jurisdictions {
		tags[i] = string(tag)
	}
	sort.Strings(tags)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%s|%d|%d",
		query, opts.K, opts.Mode, strings.Join(tags, ","),
		opts.After.UnixNano(), opts.Before.UnixNano(),
	)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
