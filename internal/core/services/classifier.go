package services

import (
	"regexp"
	"strings"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/logger"
)

// jurisdictionTerms maps each regional jurisdiction to the regulatory
// vocabulary that signals it. Terms are matched on word boundaries,
// case-insensitively.
var jurisdictionTerms = map[domain.JurisdictionTag][]string{
	domain.JurisdictionUS: {
		"sec", "finra", "dodd-frank", "securities act", "exchange act",
		"federal reserve", "cftc", "us treasury", "fasb", "us gaap",
		"sarbanes-oxley", "sox", "united states", "fincen", "ofac",
	},
	domain.JurisdictionEU: {
		"esma", "eba", "ecb", "mifid", "gdpr", "emir", "european union",
		"eu", "european commission", "ifrs", "brexit",
		"european central bank",
	},
	domain.JurisdictionIndia: {
		"sebi", "rbi", "companies act india", "indian securities",
		"nse india", "bse india", "reserve bank of india", "fema",
		"indian regulatory", "indian compliance", "india",
	},
	domain.JurisdictionAPAC: {
		"mas singapore", "hkma", "csrc china", "jfsa japan",
		"bank of japan", "pboc", "korean fsc", "asian regulatory",
		"apac compliance", "asian markets", "singapore exchange",
		"hong kong exchange", "tokyo exchange", "shanghai exchange",
		"asian development bank", "asean",
	},
}

// currencyFallbacks resolve a jurisdiction from currency mentions when no
// regulatory vocabulary matched.
var currencyFallbacks = []struct {
	pattern *regexp.Regexp
	tag     domain.JurisdictionTag
}{
	{regexp.MustCompile(`(?i)\bdollars?\b|\$`), domain.JurisdictionUS},
	{regexp.MustCompile(`(?i)\beuros?\b|€`), domain.JurisdictionEU},
	{regexp.MustCompile(`(?i)\brupees?\b|₹`), domain.JurisdictionIndia},
	{regexp.MustCompile(`(?i)\byen\b|\byuan\b|¥`), domain.JurisdictionAPAC},
}

// compiled per-jurisdiction matchers, built once at startup.
var jurisdictionMatchers = func() map[domain.JurisdictionTag][]*regexp.Regexp {
	matchers := make(map[domain.JurisdictionTag][]*regexp.Regexp, len(jurisdictionTerms))
	for tag, terms := range jurisdictionTerms {
		compiled := make([]*regexp.Regexp, len(terms))
		for i, term := range terms {
			compiled[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		}
		matchers[tag] = compiled
	}
	return matchers
}()

// JurisdictionClassifier assigns jurisdiction tags to documents.
// Classification is deterministic and side-effect-free: the same text
// always yields the same tags.
type JurisdictionClassifier struct {
	// minSignals is the number of term matches a jurisdiction needs to
	// clear the confidence threshold.
	minSignals int
}

// NewJurisdictionClassifier creates a classifier with the default
// confidence threshold of one term match.
func NewJurisdictionClassifier() *JurisdictionClassifier {
	return &JurisdictionClassifier{minSignals: 1}
}

// Classify returns the non-empty set of jurisdiction tags for a document.
// Every jurisdiction whose vocabulary clears the threshold is included;
// when none does, a currency mention decides, and failing that the result
// is {Global}.
func (c *JurisdictionClassifier) Classify(doc *domain.Document) []domain.JurisdictionTag {
	text := strings.ToLower(doc.Text + " " + doc.Title)

	var tags []domain.JurisdictionTag
	for _, tag := range domain.AllJurisdictions() {
		matchers, ok := jurisdictionMatchers[tag]
		if !ok {
			continue
		}
		count := 0
		for _, m := range matchers {
			if m.MatchString(text) {
				count++
			}
		}
		if count >= c.minSignals {
			tags = append(tags, tag)
		}
	}

	if len(tags) == 0 {
		for _, fb := range currencyFallbacks {
			if fb.pattern.MatchString(doc.Text) {
				tags = append(tags, fb.tag)
				break
			}
		}
	}

	if len(tags) == 0 {
		tags = append(tags, domain.JurisdictionGlobal)
	}

	logger.Debug("Classified %s as %v", doc.ID, tags)
	return tags
}
