// Package source defines the provider-neutral boundary for citation
// lookups. Every provider adapter returns the same tagged Bundle type,
// so downstream code never branches on a provider's payload shape.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/frantsen/citewatch/internal/citation"
)

// Status tags a Bundle with the outcome of a lookup.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// Publication is a provider's view of the looked-up publication itself.
// Informational only; it is never merged with citation records.
type Publication struct {
	Title           string `json:"title,omitempty"`
	DOI             string `json:"doi,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
}

// Bundle is the result of one adapter lookup: Found with the
// publication info and its citing works, NotFound, or Error with a
// reason. Error and NotFound both mean zero citations to callers, but
// stay distinguishable for logging.
type Bundle struct {
	Status      Status            `json:"status"`
	Publication Publication       `json:"publication"`
	Citations   []citation.Record `json:"citations,omitempty"`
	Reason      string            `json:"reason,omitempty"`
}

// Found builds a successful Bundle.
func Found(pub Publication, citations []citation.Record) Bundle {
	return Bundle{Status: StatusFound, Publication: pub, Citations: citations}
}

// NotFound builds a Bundle for a publication the provider does not know.
func NotFound() Bundle {
	return Bundle{Status: StatusNotFound}
}

// Errorf builds an Error Bundle with a formatted reason. Adapters fold
// every transport and parse failure into one of these instead of
// returning a Go error across the boundary.
func Errorf(format string, args ...interface{}) Bundle {
	return Bundle{Status: StatusError, Reason: fmt.Sprintf(format, args...)}
}

// Source is the capability set exposed by each provider adapter.
// Implementations perform one bounded network round trip sequence per
// call and never return an error: failures become Error bundles.
type Source interface {
	// Name identifies the provider in logs and cache keys.
	Name() string

	FetchByDOI(ctx context.Context, doi string) Bundle
	FetchByTitle(ctx context.Context, title string) Bundle
}

// Fetch applies the lookup precedence for one tracked publication: the
// DOI when present, the title only otherwise.
func Fetch(ctx context.Context, s Source, pub citation.TrackedPublication) Bundle {
	if strings.TrimSpace(pub.DOI) != "" {
		return s.FetchByDOI(ctx, pub.DOI)
	}
	return s.FetchByTitle(ctx, pub.Title)
}
