package citation

import (
	"strings"
	"time"
)

// titleKeyLen is the fixed prefix length used to deduplicate DOI-less
// records by title.
const titleKeyLen = 50

// NormalizeDOI normalizes a DOI to a consistent format for comparison.
// It removes common URL prefixes (https://doi.org/, doi:) and converts
// to lowercase. OpenAlex returns DOIs in full URL form while Semantic
// Scholar returns them bare, so comparisons must go through here.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	if len(doi) >= 4 && strings.EqualFold(doi[:4], "doi:") {
		doi = doi[4:]
	}
	return strings.ToLower(doi)
}

// TitleKey returns the dedup key for a DOI-less record: the first 50
// characters of the trimmed title. An empty result means the record
// carries no identity and cannot be deduplicated.
func TitleKey(title string) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) > titleKeyLen {
		runes = runes[:titleKeyLen]
	}
	return string(runes)
}

// NormalizeDate parses a citation's publication date string.
// Accepted shapes: YYYY-MM-DD, or bare YYYY which normalizes to
// January 1 of that year. Anything else (including YYYY-MM) is
// unparseable and excluded from date-bounded counting.
func NormalizeDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ParseCutoff parses a cutoff date argument in YYYY-MM-DD form.
func ParseCutoff(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}
