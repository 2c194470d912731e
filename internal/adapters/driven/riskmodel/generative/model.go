// Package generative provides a risk model backed by a generation
// service. The model asks for a single numeric risk estimate and parses
// it; anything the model returns that does not parse to a number in
// [0,1] is an error, so scoring fails closed rather than defaulting.
package generative

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.RiskModel = (*Model)(nil)

// maxExcerpt bounds the document text placed in the prompt.
const maxExcerpt = 4000

// Model scores text by asking a generation service for an estimate.
type Model struct {
	generator driven.GenerationService
}

// New creates a generative risk model on top of a generation service.
func New(generator driven.GenerationService) *Model {
	return &Model{generator: generator}
}

// Score estimates a risk signal in [0,1].
func (m *Model) Score(ctx context.Context, text string, tags []domain.JurisdictionTag) (float64, error) {
	reply, err := m.generator.Generate(ctx, buildPrompt(text, tags), driven.GenerateOptions{
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return 0, fmt.Errorf("generating risk estimate: %w", err)
	}

	signal, err := parseSignal(reply)
	if err != nil {
		return 0, err
	}
	return signal, nil
}

// Name identifies the model for assessment rationale.
func (m *Model) Name() string {
	return "generative/" + m.generator.ModelName()
}

func buildPrompt(text string, tags []domain.JurisdictionTag) string {
	if len(text) > maxExcerpt {
		text = text[:maxExcerpt]
	}

	var b strings.Builder
	b.WriteString("Rate the financial-compliance risk of the following document on a scale from 0.0 (no risk) to 1.0 (severe risk).")
	if len(tags) > 0 {
		labels := make([]string, len(tags))
		for i, tag := range tags {
			labels[i] = string(tag)
		}
		fmt.Fprintf(&b, " Relevant jurisdictions: %s.", strings.Join(labels, ", "))
	}
	b.WriteString(" Respond with the number only.\n\nDocument:\n")
	b.WriteString(text)
	b.WriteString("\n\nRisk score:")
	return b.String()
}

// parseSignal extracts the leading number from the model reply.
func parseSignal(reply string) (float64, error) {
	reply = strings.TrimSpace(reply)
	fields := strings.Fields(reply)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty risk estimate")
	}

	signal, err := strconv.ParseFloat(strings.TrimRight(fields[0], "."), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable risk estimate %q", reply)
	}
	if signal < 0 || signal > 1 {
		return 0, fmt.Errorf("risk estimate %v out of range", signal)
	}
	return signal, nil
}
