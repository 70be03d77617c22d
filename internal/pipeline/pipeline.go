// Package pipeline orchestrates one full collection run: fetch
// citations for every tracked publication from every provider, merge
// per publication, and hand the completed mapping back for persistence
// and aggregation.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/snapshot"
	"github.com/frantsen/citewatch/internal/source"
)

// DefaultDelay is the fixed pause between publications in sequential
// mode, keeping well under the providers' rate limits.
const DefaultDelay = 2 * time.Second

// Outcome records one provider's lookup result for one publication.
type Outcome struct {
	Provider  string        `json:"provider"`
	Status    source.Status `json:"status"`
	Citations int           `json:"citations"`
	Reason    string        `json:"reason,omitempty"`
}

// PublicationReport summarizes the fetch and merge for one publication.
type PublicationReport struct {
	Key      string    `json:"key,omitempty"`
	Skipped  bool      `json:"skipped,omitempty"`
	Outcomes []Outcome `json:"outcomes,omitempty"`
	Merged   int       `json:"merged_citations"`
}

// Result is a completed run: the snapshot mapping plus per-publication
// reports in input order.
type Result struct {
	Snapshot snapshot.Snapshot   `json:"-"`
	Reports  []PublicationReport `json:"reports"`
}

// Runner executes collection runs over a fixed set of providers.
type Runner struct {
	sources  []source.Source
	delay    time.Duration
	workers  int
	progress io.Writer
	mu       sync.Mutex
}

// progressf writes one progress line. Workers share the writer, so
// writes are serialized.
func (r *Runner) progressf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.progress, format, args...)
}

// Option configures a Runner.
type Option func(*Runner)

// WithDelay sets the inter-publication delay for sequential runs.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.delay = d
	}
}

// WithWorkers enables bounded-concurrency fetching across publications.
// The providers' shared rate limiters remain the throttle; the
// inter-publication delay is skipped.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithProgress redirects progress and warning output.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) {
		r.progress = w
	}
}

// New creates a Runner querying the given providers in order. Provider
// order matters for merge ties, so the authoritative provider comes
// first.
func New(sources []source.Source, opts ...Option) *Runner {
	r := &Runner{
		sources:  sources,
		delay:    DefaultDelay,
		workers:  1,
		progress: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run fetches and merges citations for every publication. The returned
// snapshot is complete or absent: when the context is cancelled
// mid-run, Run returns the context error and no snapshot, so callers
// never persist partial state.
func (r *Runner) Run(ctx context.Context, pubs []citation.TrackedPublication) (*Result, error) {
	if r.workers > 1 {
		return r.runParallel(ctx, pubs)
	}
	return r.runSequential(ctx, pubs)
}

func (r *Runner) runSequential(ctx context.Context, pubs []citation.TrackedPublication) (*Result, error) {
	snap := make(snapshot.Snapshot, len(pubs))
	reports := make([]PublicationReport, 0, len(pubs))

	for i, pub := range pubs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !pub.Identified() {
			r.progressf("skipping publication %d: no title or DOI\n", i+1)
			reports = append(reports, PublicationReport{Skipped: true})
			continue
		}

		report, merged := r.fetchOne(ctx, pub)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap[pub.Key()] = merged
		reports = append(reports, report)

		if r.delay > 0 && i < len(pubs)-1 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return &Result{Snapshot: snap, Reports: reports}, nil
}

func (r *Runner) runParallel(ctx context.Context, pubs []citation.TrackedPublication) (*Result, error) {
	type slot struct {
		report PublicationReport
		merged []citation.Record
	}
	results := make([]slot, len(pubs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)

	for i, pub := range pubs {
		if !pub.Identified() {
			r.progressf("skipping publication %d: no title or DOI\n", i+1)
			results[i] = slot{report: PublicationReport{Skipped: true}}
			continue
		}

		wg.Add(1)
		go func(idx int, p citation.TrackedPublication) {
			defer wg.Done()
			sem <- struct{}{}        // acquire semaphore
			defer func() { <-sem }() // release semaphore
			if ctx.Err() != nil {
				return
			}
			report, merged := r.fetchOne(ctx, p)
			results[idx] = slot{report: report, merged: merged}
		}(i, pub)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := make(snapshot.Snapshot, len(pubs))
	reports := make([]PublicationReport, 0, len(pubs))
	for i, res := range results {
		reports = append(reports, res.report)
		if res.report.Skipped {
			continue
		}
		snap[pubs[i].Key()] = res.merged
	}
	return &Result{Snapshot: snap, Reports: reports}, nil
}

// fetchOne queries every provider for one publication and merges the
// concatenated results. Provider failures degrade to zero citations
// from that provider and are reported, never returned as errors.
func (r *Runner) fetchOne(ctx context.Context, pub citation.TrackedPublication) (PublicationReport, []citation.Record) {
	key := pub.Key()
	r.progressf("processing %s\n", key)

	var all []citation.Record
	outcomes := make([]Outcome, 0, len(r.sources))
	for _, src := range r.sources {
		bundle := source.Fetch(ctx, src, pub)
		outcome := Outcome{
			Provider:  src.Name(),
			Status:    bundle.Status,
			Citations: len(bundle.Citations),
		}
		switch bundle.Status {
		case source.StatusError:
			outcome.Reason = bundle.Reason
			r.progressf("warning: %s lookup failed for %s: %s\n", src.Name(), key, bundle.Reason)
		case source.StatusNotFound:
			r.progressf("%s: no match for %s\n", src.Name(), key)
		}
		outcomes = append(outcomes, outcome)
		all = append(all, bundle.Citations...)
	}

	merged := citation.Merge(all)
	r.progressf("found %d unique citing works for %s\n", len(merged), key)
	return PublicationReport{Key: key, Outcomes: outcomes, Merged: len(merged)}, merged
}
