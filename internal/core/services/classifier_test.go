package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

func classify(text string) []domain.JurisdictionTag {
	c := NewJurisdictionClassifier()
	return c.Classify(&domain.Document{ID: "doc-1", Text: text})
}

func TestClassifyUSRegulatoryTerms(t *testing.T) {
	tags := classify("The SEC and FinCEN opened a joint investigation.")
	assert.Equal(t, []domain.JurisdictionTag{domain.JurisdictionUS}, tags)
}

func TestClassifyMultipleJurisdictions(t *testing.T) {
	tags := classify("The filing cites both SEC guidance and GDPR obligations under the European Commission.")
	assert.Contains(t, tags, domain.JurisdictionUS)
	assert.Contains(t, tags, domain.JurisdictionEU)
}

func TestClassifyIndiaAndAPAC(t *testing.T) {
	assert.Contains(t, classify("SEBI issued a show-cause notice."), domain.JurisdictionIndia)
	assert.Contains(t, classify("HKMA published revised capital guidance."), domain.JurisdictionAPAC)
}

func TestClassifyCurrencyFallback(t *testing.T) {
	tags := classify("The settlement totalled 2 million euros.")
	assert.Equal(t, []domain.JurisdictionTag{domain.JurisdictionEU}, tags)
}

func TestClassifyGlobalDefault(t *testing.T) {
	tags := classify("Board approved the updated travel policy.")
	assert.Equal(t, []domain.JurisdictionTag{domain.JurisdictionGlobal}, tags)
}

func TestClassifyWordBoundaries(t *testing.T) {
	// "secure" must not match the "sec" vocabulary.
	tags := classify("A secure archive of board minutes.")
	assert.Equal(t, []domain.JurisdictionTag{domain.JurisdictionGlobal}, tags)
}

func TestClassifyUsesTitle(t *testing.T) {
	c := NewJurisdictionClassifier()
	tags := c.Classify(&domain.Document{
		ID:    "doc-2",
		Title: "RBI circular on overseas remittances",
		Text:  "Details follow.",
	})
	assert.Contains(t, tags, domain.JurisdictionIndia)
}

func TestClassifyDeterministic(t *testing.T) {
	text := "ESMA and the ECB commented on MiFID reporting."
	assert.Equal(t, classify(text), classify(text))
}
