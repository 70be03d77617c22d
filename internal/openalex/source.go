package openalex

import (
	"context"
	"strings"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/source"
)

// Name identifies the provider in logs, cache keys and record tags.
func (c *Client) Name() string {
	return citation.SourceOpenAlex
}

// FetchByDOI resolves a tracked publication by DOI and bundles its
// citing works. All failures are folded into the bundle.
func (c *Client) FetchByDOI(ctx context.Context, doi string) source.Bundle {
	work, err := c.WorkByDOI(ctx, citation.NormalizeDOI(doi))
	return c.bundle(ctx, work, err)
}

// FetchByTitle resolves a tracked publication by title search and
// bundles its citing works.
func (c *Client) FetchByTitle(ctx context.Context, title string) source.Bundle {
	work, err := c.SearchWork(ctx, title)
	return c.bundle(ctx, work, err)
}

func (c *Client) bundle(ctx context.Context, work *Work, err error) source.Bundle {
	if err != nil {
		if IsNotFound(err) {
			return source.NotFound()
		}
		return source.Errorf("openalex: %v", err)
	}

	citing, err := c.Citations(ctx, work.ID, DefaultCitationsLimit)
	if err != nil {
		return source.Errorf("openalex: listing citations: %v", err)
	}

	records := make([]citation.Record, 0, len(citing))
	for _, w := range citing {
		records = append(records, toRecord(w))
	}
	return source.Found(publicationInfo(work), records)
}

// toRecord maps an OpenAlex work onto the common citation record shape.
// DOIs stay in the URL form the API returns; comparison normalizes.
func toRecord(w Work) citation.Record {
	return citation.Record{
		Title:           workTitle(w),
		DOI:             w.DOI,
		PublicationDate: w.PublicationDate,
		Source:          citation.SourceOpenAlex,
	}
}

func publicationInfo(w *Work) source.Publication {
	return source.Publication{
		Title:           workTitle(*w),
		DOI:             w.DOI,
		PublicationDate: w.PublicationDate,
	}
}

func workTitle(w Work) string {
	if title := strings.TrimSpace(w.Title); title != "" {
		return title
	}
	return strings.TrimSpace(w.DisplayName)
}
