package services

import (
	"regexp"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// Risk levels assigned to scoring rules. Values follow the original
// compliance keyword weighting: a single critical trigger alone puts a
// document near the top of the range.
const (
	riskLevelCritical = 0.90
	riskLevelHigh     = 0.75
	riskLevelMedium   = 0.50
	riskLevelLow      = 0.30
)

// ScoringRule is one pure (text) -> signal function. A rule emits its
// level when its pattern matches and zero otherwise, so each signal stays
// inside [0,1] by construction.
type ScoringRule struct {
	// Name is the trigger phrase, recorded as a finding when matched.
	Name string

	// Category groups related rules for assessment reporting.
	Category string

	// Level is the signal emitted on a match.
	Level float64

	pattern *regexp.Regexp
}

// Signal evaluates the rule against lowercased text.
func (r *ScoringRule) Signal(text string) float64 {
	if r.pattern.MatchString(text) {
		return r.Level
	}
	return 0
}

func newRule(name, category string, level float64) ScoringRule {
	return ScoringRule{
		Name:     name,
		Category: category,
		Level:    level,
		pattern:  regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`),
	}
}

// globalRules apply to every document regardless of jurisdiction.
var globalRules = []ScoringRule{
	newRule("money laundering", "AML", riskLevelCritical),
	newRule("terrorist financing", "AML", riskLevelCritical),
	newRule("sanctions violation", "Sanctions", riskLevelCritical),
	newRule("sanctions evasion", "Sanctions", riskLevelCritical),
	newRule("insider trading", "Market Abuse", riskLevelCritical),
	newRule("market manipulation", "Market Abuse", riskLevelCritical),
	newRule("ponzi scheme", "Fraud", riskLevelCritical),
	newRule("bribery", "Corruption", riskLevelCritical),

	newRule("fraud", "Fraud", riskLevelHigh),
	newRule("embezzlement", "Fraud", riskLevelHigh),
	newRule("kickback", "Corruption", riskLevelHigh),
	newRule("shell company", "AML", riskLevelHigh),
	newRule("tax evasion", "Tax", riskLevelHigh),
	newRule("unreported income", "Tax", riskLevelHigh),
	newRule("falsified records", "Reporting", riskLevelHigh),
	newRule("material misstatement", "Reporting", riskLevelHigh),

	newRule("conflict of interest", "Governance", riskLevelMedium),
	newRule("regulatory investigation", "Enforcement", riskLevelMedium),
	newRule("non-compliance", "Compliance", riskLevelMedium),
	newRule("data breach", "Data Protection", riskLevelMedium),
	newRule("late filing", "Reporting", riskLevelMedium),
	newRule("whistleblower", "Governance", riskLevelMedium),

	newRule("audit finding", "Audit", riskLevelLow),
	newRule("internal control weakness", "Audit", riskLevelLow),
	newRule("policy exception", "Compliance", riskLevelLow),
	newRule("remediation plan", "Compliance", riskLevelLow),
}

// jurisdictionRules extend the global set with region-specific triggers.
var jurisdictionRules = map[domain.JurisdictionTag][]ScoringRule{
	domain.JurisdictionUS: {
		newRule("sec enforcement", "Enforcement", riskLevelHigh),
		newRule("sox violation", "Reporting", riskLevelHigh),
		newRule("ofac designation", "Sanctions", riskLevelCritical),
		newRule("wire fraud", "Fraud", riskLevelCritical),
		newRule("finra sanction", "Enforcement", riskLevelHigh),
	},
	domain.JurisdictionEU: {
		newRule("gdpr violation", "Data Protection", riskLevelHigh),
		newRule("gdpr fine", "Data Protection", riskLevelHigh),
		newRule("mifid breach", "Market Abuse", riskLevelHigh),
		newRule("market abuse regulation", "Market Abuse", riskLevelMedium),
		newRule("emir reporting failure", "Reporting", riskLevelMedium),
	},
	domain.JurisdictionIndia: {
		newRule("sebi enforcement", "Enforcement", riskLevelHigh),
		newRule("fema violation", "Sanctions", riskLevelHigh),
		newRule("pmla", "AML", riskLevelHigh),
		newRule("hawala", "AML", riskLevelCritical),
	},
	domain.JurisdictionAPAC: {
		newRule("mas enforcement", "Enforcement", riskLevelHigh),
		newRule("hkma notice", "Enforcement", riskLevelMedium),
		newRule("capital flight", "AML", riskLevelHigh),
	},
}

// rulesForJurisdictions returns the ordered rule set for a document:
// global rules first, then each tagged jurisdiction's rules. Order never
// affects the score; it only fixes the order findings are reported in.
func rulesForJurisdictions(tags []domain.JurisdictionTag) []ScoringRule {
	rules := make([]ScoringRule, 0, len(globalRules)+8)
	rules = append(rules, globalRules...)
	for _, tag := range tags {
		rules = append(rules, jurisdictionRules[tag]...)
	}
	return rules
}
