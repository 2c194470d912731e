// Package extractive provides a fully offline generation service. It
// composes an answer by extracting the prompt's excerpt sentences that
// overlap the question's terms, rather than calling a model. Quality is
// well below a hosted model, but the adapter is deterministic and needs
// no network, which makes it the default for air-gapped deployments.
package extractive

import (
	"context"
	"strings"

	"github.com/veridian-labs/reguard/internal/analysis"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

const maxSentences = 3

// GenerationService extracts answer sentences from the prompt context.
type GenerationService struct{}

// NewGenerationService creates an extractive generator.
func NewGenerationService() *GenerationService {
	return &GenerationService{}
}

// Generate selects the context sentences sharing the most terms with the
// question. Prompts without a recognisable question yield the whole
// leading context, truncated to a few sentences.
func (s *GenerationService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	question, contextText := splitPrompt(prompt)

	questionTerms := make(map[string]bool)
	for _, term := range analysis.Tokenize(question) {
		questionTerms[term] = true
	}

	type scored struct {
		sentence string
		overlap  int
		position int
	}
	var candidates []scored
	for i, sentence := range splitSentences(contextText) {
		overlap := 0
		for _, term := range analysis.Tokenize(sentence) {
			if questionTerms[term] {
				overlap++
			}
		}
		if overlap > 0 || len(questionTerms) == 0 {
			candidates = append(candidates, scored{sentence, overlap, i})
		}
	}

	if len(candidates) == 0 {
		return "The provided excerpts do not contain an answer to this question.", nil
	}

	// Highest overlap first, original order among equals.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].overlap > candidates[j-1].overlap; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	if len(candidates) > maxSentences {
		candidates = candidates[:maxSentences]
	}

	sentences := make([]string, len(candidates))
	for i, c := range candidates {
		sentences[i] = strings.TrimSpace(c.sentence)
	}
	answer := strings.Join(sentences, " ")

	if opts.MaxTokens > 0 && len(answer) > opts.MaxTokens*4 {
		answer = answer[:opts.MaxTokens*4]
	}
	return answer, nil
}

// ModelName returns the name of the model being used.
func (s *GenerationService) ModelName() string {
	return "extractive"
}

// Close releases resources.
func (s *GenerationService) Close() error {
	return nil
}

// splitPrompt separates the final question from the excerpt context.
func splitPrompt(prompt string) (question, contextText string) {
	const marker = "Question:"
	if i := strings.LastIndex(prompt, marker); i >= 0 {
		question = strings.TrimSpace(strings.TrimSuffix(
			strings.TrimSpace(prompt[i+len(marker):]), "Answer:"))
		contextText = prompt[:i]
		return question, contextText
	}
	return "", prompt
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			sentence := strings.TrimSpace(text[start : i+1])
			if sentence != "" && sentence != "." {
				sentences = append(sentences, sentence)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
