package source

import (
	"context"
	"testing"

	"github.com/frantsen/citewatch/internal/citation"
)

// fakeSource records which lookup method was used.
type fakeSource struct {
	byDOI   string
	byTitle string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchByDOI(ctx context.Context, doi string) Bundle {
	f.byDOI = doi
	return NotFound()
}

func (f *fakeSource) FetchByTitle(ctx context.Context, title string) Bundle {
	f.byTitle = title
	return NotFound()
}

func TestFetch_PrefersDOI(t *testing.T) {
	fake := &fakeSource{}
	pub := citation.TrackedPublication{Title: "Some Title", DOI: "10.1/x"}

	Fetch(context.Background(), fake, pub)

	if fake.byDOI != "10.1/x" {
		t.Errorf("FetchByDOI called with %q, want %q", fake.byDOI, "10.1/x")
	}
	if fake.byTitle != "" {
		t.Errorf("FetchByTitle called with %q, want no title lookup when a DOI exists", fake.byTitle)
	}
}

func TestFetch_FallsBackToTitle(t *testing.T) {
	fake := &fakeSource{}
	pub := citation.TrackedPublication{Title: "Some Title", DOI: "   "}

	Fetch(context.Background(), fake, pub)

	if fake.byTitle != "Some Title" {
		t.Errorf("FetchByTitle called with %q, want %q", fake.byTitle, "Some Title")
	}
	if fake.byDOI != "" {
		t.Errorf("FetchByDOI called with %q, want no DOI lookup for a blank DOI", fake.byDOI)
	}
}

func TestBundleConstructors(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		pub := Publication{Title: "T", DOI: "10.1/a"}
		citations := []citation.Record{{Title: "X", Source: citation.SourceOpenAlex}}
		b := Found(pub, citations)
		if b.Status != StatusFound {
			t.Errorf("Status = %q, want %q", b.Status, StatusFound)
		}
		if len(b.Citations) != 1 {
			t.Errorf("citations = %d, want 1", len(b.Citations))
		}
	})

	t.Run("not found", func(t *testing.T) {
		b := NotFound()
		if b.Status != StatusNotFound {
			t.Errorf("Status = %q, want %q", b.Status, StatusNotFound)
		}
		if len(b.Citations) != 0 {
			t.Errorf("citations = %d, want 0", len(b.Citations))
		}
	})

	t.Run("error carries reason", func(t *testing.T) {
		b := Errorf("status %d", 502)
		if b.Status != StatusError {
			t.Errorf("Status = %q, want %q", b.Status, StatusError)
		}
		if b.Reason != "status 502" {
			t.Errorf("Reason = %q, want %q", b.Reason, "status 502")
		}
	})
}
