package domain

import "fmt"

// JurisdictionTag identifies the regulatory region a document relates to.
type JurisdictionTag string

// Known jurisdictions. A document may carry several tags; it never carries
// none — JurisdictionGlobal is the fallback when no regional signal is found.
const (
	JurisdictionUS     JurisdictionTag = "US"
	JurisdictionEU     JurisdictionTag = "EU"
	JurisdictionIndia  JurisdictionTag = "INDIA"
	JurisdictionAPAC   JurisdictionTag = "APAC"
	JurisdictionGlobal JurisdictionTag = "GLOBAL"
)

// AllJurisdictions returns every known tag in a stable order.
func AllJurisdictions() []JurisdictionTag {
	return []JurisdictionTag{
		JurisdictionUS,
		JurisdictionEU,
		JurisdictionIndia,
		JurisdictionAPAC,
		JurisdictionGlobal,
	}
}

// ParseJurisdiction converts a string to a JurisdictionTag.
func ParseJurisdiction(s string) (JurisdictionTag, error) {
	switch JurisdictionTag(s) {
	case JurisdictionUS, JurisdictionEU, JurisdictionIndia, JurisdictionAPAC, JurisdictionGlobal:
		return JurisdictionTag(s), nil
	default:
		return "", fmt.Errorf("%w: unknown jurisdiction %q", ErrInvalidInput, s)
	}
}

// DisplayName returns the human-readable name for the tag.
func (t JurisdictionTag) DisplayName() string {
	switch t {
	case JurisdictionUS:
		return "United States"
	case JurisdictionEU:
		return "European Union"
	case JurisdictionIndia:
		return "India"
	case JurisdictionAPAC:
		return "Asia Pacific"
	case JurisdictionGlobal:
		return "Global"
	default:
		return string(t)
	}
}

// HasJurisdiction reports whether tags contains the given tag.
func HasJurisdiction(tags []JurisdictionTag, tag JurisdictionTag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
