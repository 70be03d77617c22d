// Package citation defines the core domain types for citation
// reconciliation: tracked publications, citing-work records, and the
// merge and aggregation rules applied to them.
package citation

import "strings"

// Provider source tags, in priority order. OpenAlex records are
// authoritative when both providers report the same citing work.
const (
	SourceOpenAlex        = "openalex"
	SourceSemanticScholar = "semanticscholar"
)

// Record represents one citing work as reported by one provider.
// Records are never mutated after creation; merging produces new ones.
type Record struct {
	Title           string `json:"title"`
	DOI             string `json:"doi,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	Source          string `json:"source"`
}

// TrackedPublication identifies a publication the system monitors.
// At least one of Title/DOI must be non-empty for it to be processable.
type TrackedPublication struct {
	Title string `json:"title,omitempty"`
	DOI   string `json:"doi,omitempty"`
}

// Key returns the identifier used for lookups and as the snapshot key:
// the normalized DOI when present, otherwise the trimmed title.
func (p TrackedPublication) Key() string {
	if doi := NormalizeDOI(p.DOI); doi != "" {
		return doi
	}
	return strings.TrimSpace(p.Title)
}

// Identified reports whether the publication carries enough identity to
// be looked up at a provider.
func (p TrackedPublication) Identified() bool {
	return p.Key() != ""
}
