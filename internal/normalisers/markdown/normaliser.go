package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

var (
	headingMarks = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	codeFence    = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`([^`]*)`")
	linkSyntax   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	emphasis     = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	listMarks    = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	firstHeading = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// Normalise strips Markdown syntax and returns the document text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	title := extractMarkdownTitle(content, raw.SourceURI)

	text := codeFence.ReplaceAllString(content, "")
	text = headingMarks.ReplaceAllString(text, "")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = linkSyntax.ReplaceAllString(text, "$1")
	text = emphasis.ReplaceAllString(text, "$1")
	text = listMarks.ReplaceAllString(text, "")

	return &driven.NormaliseResult{
		Title: title,
		Text:  strings.TrimSpace(text),
	}, nil
}

// extractMarkdownTitle uses the first level-1 heading, falling back to the
// filename.
func extractMarkdownTitle(content, uri string) string {
	if matches := firstHeading.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	filename := filepath.Base(uri)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	return strings.ReplaceAll(filename, "-", " ")
}
