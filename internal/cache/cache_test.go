package cache

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/source"
)

func openTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func foundBundle(doi string) source.Bundle {
	return source.Found(
		source.Publication{Title: "Paper", DOI: doi},
		[]citation.Record{{Title: "Citing", DOI: "10.2/citing", PublicationDate: "2023-01-01", Source: citation.SourceOpenAlex}},
	)
}

func TestStorePutGet(t *testing.T) {
	store := openTestStore(t, time.Hour)

	want := foundBundle("10.1/a")
	if err := store.Put("openalex", "doi:10.1/a", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := store.Get("openalex", "doi:10.1/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() missed a stored entry")
	}
	if got.Status != source.StatusFound {
		t.Errorf("status = %q, want %q", got.Status, source.StatusFound)
	}
	if got.Publication.DOI != "10.1/a" {
		t.Errorf("publication DOI = %q, want 10.1/a", got.Publication.DOI)
	}
	if len(got.Citations) != 1 || got.Citations[0].DOI != "10.2/citing" {
		t.Errorf("citations = %+v", got.Citations)
	}
}

func TestStoreMiss(t *testing.T) {
	store := openTestStore(t, time.Hour)

	_, ok, err := store.Get("openalex", "doi:10.1/absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() reported a hit for an absent key")
	}
}

func TestStoreKeysAreScopedByProvider(t *testing.T) {
	store := openTestStore(t, time.Hour)

	if err := store.Put("openalex", "doi:10.1/a", foundBundle("10.1/a")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	_, ok, err := store.Get("semanticscholar", "doi:10.1/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("entry stored for one provider served to another")
	}
}

func TestStoreReplace(t *testing.T) {
	store := openTestStore(t, time.Hour)

	if err := store.Put("openalex", "doi:10.1/a", source.NotFound()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put("openalex", "doi:10.1/a", foundBundle("10.1/a")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := store.Get("openalex", "doi:10.1/a")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if got.Status != source.StatusFound {
		t.Errorf("status = %q, want replacement to win", got.Status)
	}

	n, err := store.Len()
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}

func TestStoreExpiry(t *testing.T) {
	store := openTestStore(t, time.Hour)

	if err := store.Put("openalex", "doi:10.1/a", foundBundle("10.1/a")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Move the clock past the TTL.
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok, err := store.Get("openalex", "doi:10.1/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() served an expired entry")
	}
}

func TestStoreZeroTTLNeverExpires(t *testing.T) {
	store := openTestStore(t, 0)

	if err := store.Put("openalex", "doi:10.1/a", foundBundle("10.1/a")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	store.now = func() time.Time { return time.Now().Add(1000 * time.Hour) }

	_, ok, err := store.Get("openalex", "doi:10.1/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Error("entry expired despite zero TTL")
	}
}

func TestOpenPrunesExpiredEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := Open(path, time.Hour)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	// Backdate the entry past the TTL.
	store.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	if err := store.Put("openalex", "doi:10.1/old", foundBundle("10.1/old")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path, time.Hour)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Len()
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Len() after reopen = %d, want 0", n)
	}
}

// countingSource counts pass-through fetches.
type countingSource struct {
	name   string
	bundle source.Bundle
	calls  int
}

func (c *countingSource) Name() string { return c.name }

func (c *countingSource) FetchByDOI(ctx context.Context, doi string) source.Bundle {
	c.calls++
	return c.bundle
}

func (c *countingSource) FetchByTitle(ctx context.Context, title string) source.Bundle {
	c.calls++
	return c.bundle
}

func TestCachedSourceHit(t *testing.T) {
	store := openTestStore(t, time.Hour)
	inner := &countingSource{name: citation.SourceOpenAlex, bundle: foundBundle("10.1/a")}
	cached := Wrap(inner, store, io.Discard)

	first := cached.FetchByDOI(context.Background(), "10.1/a")
	second := cached.FetchByDOI(context.Background(), "10.1/a")

	if inner.calls != 1 {
		t.Errorf("inner fetches = %d, want 1", inner.calls)
	}
	if first.Status != source.StatusFound || second.Status != source.StatusFound {
		t.Errorf("statuses = %q, %q", first.Status, second.Status)
	}
	if len(second.Citations) != 1 {
		t.Errorf("cached citations = %d, want 1", len(second.Citations))
	}
}

func TestCachedSourceNormalizesDOIKeys(t *testing.T) {
	store := openTestStore(t, time.Hour)
	inner := &countingSource{name: citation.SourceOpenAlex, bundle: foundBundle("10.1/a")}
	cached := Wrap(inner, store, io.Discard)

	cached.FetchByDOI(context.Background(), "https://doi.org/10.1/A")
	cached.FetchByDOI(context.Background(), "10.1/a")

	if inner.calls != 1 {
		t.Errorf("inner fetches = %d, want 1 for equivalent DOIs", inner.calls)
	}
}

func TestCachedSourceCachesNotFound(t *testing.T) {
	store := openTestStore(t, time.Hour)
	inner := &countingSource{name: citation.SourceOpenAlex, bundle: source.NotFound()}
	cached := Wrap(inner, store, io.Discard)

	cached.FetchByTitle(context.Background(), "Missing Paper")
	got := cached.FetchByTitle(context.Background(), "Missing Paper")

	if inner.calls != 1 {
		t.Errorf("inner fetches = %d, want 1", inner.calls)
	}
	if got.Status != source.StatusNotFound {
		t.Errorf("status = %q, want %q", got.Status, source.StatusNotFound)
	}
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	store := openTestStore(t, time.Hour)
	inner := &countingSource{name: citation.SourceOpenAlex, bundle: source.Errorf("openalex: boom")}
	cached := Wrap(inner, store, io.Discard)

	cached.FetchByDOI(context.Background(), "10.1/a")
	cached.FetchByDOI(context.Background(), "10.1/a")

	if inner.calls != 2 {
		t.Errorf("inner fetches = %d, want 2 for uncached errors", inner.calls)
	}
	n, err := store.Len()
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Len() = %d, want no cached error bundles", n)
	}
}

func TestCachedSourceDegradesWhenStoreFails(t *testing.T) {
	store := openTestStore(t, time.Hour)
	store.Close() // force read and write failures

	inner := &countingSource{name: citation.SourceOpenAlex, bundle: foundBundle("10.1/a")}
	var warnings strings.Builder
	cached := Wrap(inner, store, &warnings)

	got := cached.FetchByDOI(context.Background(), "10.1/a")
	if got.Status != source.StatusFound {
		t.Errorf("status = %q, want direct fetch result", got.Status)
	}
	if inner.calls != 1 {
		t.Errorf("inner fetches = %d, want 1", inner.calls)
	}
	if !strings.Contains(warnings.String(), "warning") {
		t.Error("store failure produced no warning")
	}
}
