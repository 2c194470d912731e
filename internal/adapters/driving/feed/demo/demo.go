// Package demo feeds a fixed set of sample financial documents into the
// pipeline. It exists so the full flow can be exercised without any
// external source: the samples span jurisdictions and risk levels, and
// at least one of them crosses the default alert threshold.
package demo

import (
	"context"
	"fmt"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driving"
)

type sample struct {
	name  string
	title string
	body  string
}

var samples = []sample{
	{
		name:  "q3-earnings-summary.txt",
		title: "Q3 Earnings Summary",
		body: `Q3 Earnings Summary

Revenue grew 12% year over year to $4.2 billion, driven by strong
performance in the payments segment. Operating margin expanded to 18%.
The board approved a quarterly dividend of $0.35 per share.`,
	},
	{
		name:  "sec-filing-notice.txt",
		title: "SEC Filing Notice",
		body: `SEC Filing Notice

The company filed its annual report with the SEC today. The 10-K
discloses a pending investigation by the Department of Justice into
historical sales practices in the Delaware subsidiary. Management
believes the matter will not have a material impact.`,
	},
	{
		name:  "aml-alert-wire-transfers.txt",
		title: "AML Alert: Structured Wire Transfers",
		body: `AML Alert: Structured Wire Transfers

Transaction monitoring flagged a series of wire transfers structured to
stay below reporting thresholds, a pattern consistent with money
laundering. The counterparty appears on the OFAC sanctions list and is
suspected of terrorist financing. A suspicious activity report has been
filed and the account frozen pending fraud review.`,
	},
	{
		name:  "gdpr-processing-review.md",
		title: "GDPR Processing Review",
		body: `# GDPR Processing Review

The annual review of personal data processing under the GDPR found two
gaps in the consent records held by the Frankfurt office. BaFin has been
notified as required. Remediation is scheduled for next quarter with
oversight from the European Commission liaison.`,
	},
	{
		name:  "fca-conduct-letter.txt",
		title: "FCA Conduct Letter",
		body: `FCA Conduct Letter

The FCA has written to the London branch regarding conduct risk in the
retail lending book. The letter requires a remediation plan within 60
days and flags potential breaches of the senior managers regime. A
follow-up review by the PRA is expected.`,
	},
	{
		name:  "mas-licensing-update.txt",
		title: "MAS Licensing Update",
		body: `MAS Licensing Update

The Singapore entity received its payment services licence from MAS.
Ongoing obligations include quarterly reporting in Singapore dollars and
compliance with the technology risk management guidelines.`,
	},
}

// Submit feeds every sample into the pipeline. The source URIs are
// stable across runs so re-running is idempotent.
func Submit(ctx context.Context, pipeline driving.Pipeline) (int, error) {
	for i, s := range samples {
		raw := domain.RawDocument{
			SourceURI: "demo://" + s.name,
			MIMEType:  mimeFor(s.name),
			Content:   []byte(s.body),
			Metadata: map[string]any{
				"feed":  "demo",
				"title": s.title,
			},
		}
		if err := pipeline.Submit(ctx, raw); err != nil {
			return i, fmt.Errorf("submitting %s: %w", s.name, err)
		}
	}
	return len(samples), nil
}

func mimeFor(name string) string {
	if len(name) > 3 && name[len(name)-3:] == ".md" {
		return "text/markdown"
	}
	return "text/plain"
}
