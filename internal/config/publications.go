package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/frantsen/citewatch/internal/citation"
)

// ErrNoPublications is returned when the publications file yields no
// entry with a title or DOI to look up.
var ErrNoPublications = errors.New("no processable publications")

// publicationsDoc accepts both supported shapes of the publications
// file: the canonical object list and the legacy parallel lists.
type publicationsDoc struct {
	Publications []citation.TrackedPublication `json:"publications"`
	Titles       []string                      `json:"titles"`
	DOIs         []string                      `json:"dois"`
}

// LoadPublications reads the tracked publications file. Entries with
// neither title nor DOI are dropped and reported in the returned
// warnings. A file with no usable entry at all is an error.
func LoadPublications(path string) ([]citation.TrackedPublication, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading publications: %w", err)
	}

	var doc publicationsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing publications: %w", err)
	}

	entries := doc.Publications
	if entries == nil {
		if len(doc.Titles) != len(doc.DOIs) {
			return nil, nil, fmt.Errorf("publications file %s: titles and dois differ in length (%d vs %d)",
				path, len(doc.Titles), len(doc.DOIs))
		}
		for i := range doc.Titles {
			entries = append(entries, citation.TrackedPublication{
				Title: doc.Titles[i],
				DOI:   doc.DOIs[i],
			})
		}
	}

	var pubs []citation.TrackedPublication
	var warnings []string
	for i, p := range entries {
		if !p.Identified() {
			warnings = append(warnings, fmt.Sprintf("publication %d has neither title nor DOI, skipping", i+1))
			continue
		}
		pubs = append(pubs, p)
	}
	if len(pubs) == 0 {
		return nil, warnings, fmt.Errorf("%w in %s", ErrNoPublications, path)
	}
	return pubs, warnings, nil
}

// SavePublications writes the canonical publications file shape.
func SavePublications(path string, pubs []citation.TrackedPublication) error {
	doc := struct {
		Publications []citation.TrackedPublication `json:"publications"`
	}{Publications: pubs}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding publications: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing publications: %w", err)
	}
	return nil
}
