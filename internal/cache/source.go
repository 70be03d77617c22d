package cache

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/source"
)

// CachedSource wraps a provider with read-through caching. Found and
// not-found results are cached; error bundles are not, so transient
// failures are retried on the next run. Cache trouble degrades to a
// direct fetch with a warning.
type CachedSource struct {
	src   source.Source
	store *Store
	warn  io.Writer
}

// Wrap decorates src with the cache store.
func Wrap(src source.Source, store *Store, warn io.Writer) *CachedSource {
	return &CachedSource{src: src, store: store, warn: warn}
}

// Name reports the wrapped provider's name.
func (c *CachedSource) Name() string {
	return c.src.Name()
}

// FetchByDOI looks up a DOI through the cache.
func (c *CachedSource) FetchByDOI(ctx context.Context, doi string) source.Bundle {
	key := "doi:" + citation.NormalizeDOI(doi)
	return c.fetch(key, func() source.Bundle {
		return c.src.FetchByDOI(ctx, doi)
	})
}

// FetchByTitle looks up a title through the cache.
func (c *CachedSource) FetchByTitle(ctx context.Context, title string) source.Bundle {
	key := "title:" + strings.TrimSpace(title)
	return c.fetch(key, func() source.Bundle {
		return c.src.FetchByTitle(ctx, title)
	})
}

func (c *CachedSource) fetch(key string, direct func() source.Bundle) source.Bundle {
	cached, ok, err := c.store.Get(c.Name(), key)
	if err != nil {
		fmt.Fprintf(c.warn, "warning: cache read failed for %s %s: %v\n", c.Name(), key, err)
	} else if ok {
		return cached
	}

	bundle := direct()
	if bundle.Status != source.StatusError {
		if err := c.store.Put(c.Name(), key, bundle); err != nil {
			fmt.Fprintf(c.warn, "warning: cache write failed for %s %s: %v\n", c.Name(), key, err)
		}
	}
	return bundle
}
