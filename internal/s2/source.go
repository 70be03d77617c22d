package s2

import (
	"context"
	"strconv"
	"strings"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/source"
)

// Name identifies the provider in logs, cache keys and record tags.
func (c *Client) Name() string {
	return citation.SourceSemanticScholar
}

// FetchByDOI resolves a tracked publication by DOI and bundles its
// citing papers. All failures are folded into the bundle.
func (c *Client) FetchByDOI(ctx context.Context, doi string) source.Bundle {
	paper, err := c.PaperByDOI(ctx, citation.NormalizeDOI(doi))
	return c.bundle(ctx, paper, err)
}

// FetchByTitle resolves a tracked publication by title search and
// bundles its citing papers.
func (c *Client) FetchByTitle(ctx context.Context, title string) source.Bundle {
	paper, err := c.SearchPaper(ctx, title)
	return c.bundle(ctx, paper, err)
}

func (c *Client) bundle(ctx context.Context, paper *Paper, err error) source.Bundle {
	if err != nil {
		if IsNotFound(err) {
			return source.NotFound()
		}
		return source.Errorf("semanticscholar: %v", err)
	}

	citing, err := c.Citations(ctx, paper.PaperID, DefaultCitationsLimit)
	if err != nil {
		return source.Errorf("semanticscholar: listing citations: %v", err)
	}

	records := make([]citation.Record, 0, len(citing))
	for _, p := range citing {
		records = append(records, toRecord(p))
	}
	return source.Found(publicationInfo(paper), records)
}

// toRecord maps a Semantic Scholar paper onto the common citation
// record shape. Papers often carry only a year; that becomes a bare
// YYYY date string.
func toRecord(p Paper) citation.Record {
	return citation.Record{
		Title:           strings.TrimSpace(p.Title),
		DOI:             p.ExternalIDs.DOI,
		PublicationDate: paperDate(p),
		Source:          citation.SourceSemanticScholar,
	}
}

func publicationInfo(p *Paper) source.Publication {
	return source.Publication{
		Title:           strings.TrimSpace(p.Title),
		DOI:             p.ExternalIDs.DOI,
		PublicationDate: paperDate(*p),
	}
}

// paperDate picks the full publication date when present, otherwise
// falls back to the year alone.
func paperDate(p Paper) string {
	if p.PublicationDate != "" {
		return p.PublicationDate
	}
	if p.Year > 0 {
		return strconv.Itoa(p.Year)
	}
	return ""
}
