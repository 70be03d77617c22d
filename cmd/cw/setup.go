package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frantsen/citewatch/internal/cache"
	"github.com/frantsen/citewatch/internal/config"
	"github.com/frantsen/citewatch/internal/openalex"
	"github.com/frantsen/citewatch/internal/s2"
	"github.com/frantsen/citewatch/internal/sheets"
	"github.com/frantsen/citewatch/internal/source"
)

// mustLoadConfig discovers and loads the configuration, exiting with a
// configuration error when either step fails.
func mustLoadConfig() *config.Config {
	path, err := config.Discover(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// buildSources constructs the provider adapters in merge-priority order
// (OpenAlex first), wrapped in the fetch cache when enabled. The
// returned cleanup closes the cache store and is safe to call always.
func buildSources(cfg *config.Config, cacheFlag bool) ([]source.Source, func()) {
	var oaOpts []openalex.ClientOption
	if cfg.Providers.OpenAlex.Mailto != "" {
		oaOpts = append(oaOpts, openalex.WithMailto(cfg.Providers.OpenAlex.Mailto))
	}
	oaOpts = append(oaOpts, openalex.WithRateLimit(cfg.Providers.OpenAlex.RatePerSecond))

	srcs := []source.Source{
		openalex.NewClient(oaOpts...),
		s2.NewClient(s2.WithRateLimit(cfg.Providers.SemanticScholar.RatePerSecond)),
	}
	cleanup := func() {}

	if cacheFlag || cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Path(cfg.Cache.Path), cfg.CacheTTL())
		if err != nil {
			warnf("fetch cache unavailable, fetching directly: %v", err)
			return srcs, cleanup
		}
		for i, src := range srcs {
			srcs[i] = cache.Wrap(src, store, os.Stderr)
		}
		cleanup = func() {
			if err := store.Close(); err != nil {
				warnf("closing fetch cache: %v", err)
			}
		}
	}
	return srcs, cleanup
}

// newSheetsService builds the Sheets client from the configured service
// account credentials.
func newSheetsService(ctx context.Context, cfg *config.Config) (*sheets.Service, error) {
	return sheets.NewFromCredentials(ctx, credentialsPath(cfg))
}

// credentialsPath resolves the service account key file: configuration
// first, then $GOOGLE_APPLICATION_CREDENTIALS, then the conventional
// file name in the working directory.
func credentialsPath(cfg *config.Config) string {
	if cfg.Sheets.CredentialsFile != "" {
		return cfg.Path(cfg.Sheets.CredentialsFile)
	}
	if env := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); env != "" {
		return env
	}
	return "credentials.json"
}

// dateArg is one requested cutoff date: the text as given plus its
// parsed midnight-UTC instant.
type dateArg struct {
	text   string
	cutoff time.Time
}

// resolveDates parses --dates values, defaulting to today (UTC) when
// none were given.
func resolveDates(flagDates []string) ([]dateArg, error) {
	if len(flagDates) == 0 {
		flagDates = []string{time.Now().UTC().Format("2006-01-02")}
	}
	dates := make([]dateArg, 0, len(flagDates))
	for _, text := range flagDates {
		cutoff, err := time.Parse("2006-01-02", text)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", text)
		}
		dates = append(dates, dateArg{text: text, cutoff: cutoff})
	}
	return dates, nil
}

// measuresOr returns the configured measure names, or the command's
// defaults when the configuration leaves them out.
func measuresOr(configured, defaults []string) []string {
	if len(configured) > 0 {
		return configured
	}
	return defaults
}

// fillPendingColumns writes per-date values into every pending date
// column of one stats target. The values function computes the measure
// map for one column's date. Returns one update record per column
// written.
func fillPendingColumns(ctx context.Context, svc *sheets.Service, target config.StatsTarget, measures []string, values func(dateArg) (map[string]interface{}, error)) ([]SheetUpdate, error) {
	grid, err := svc.Values(ctx, target.SheetID, target.TabName)
	if err != nil {
		return nil, err
	}
	pending := sheets.PendingDateColumns(grid, target.DateRow, target.DataRow, time.Now().UTC())

	var updates []SheetUpdate
	for _, col := range pending {
		cutoff, err := time.Parse("2006-01-02", col.Date)
		if err != nil {
			continue
		}
		vals, err := values(dateArg{text: col.Date, cutoff: cutoff})
		if err != nil {
			return updates, err
		}
		cols := []sheets.DateColumn{col}
		if err := svc.WriteStats(ctx, target.SheetID, target.TabName, target.DataRow, cols, measures, vals); err != nil {
			return updates, err
		}
		updates = append(updates, SheetUpdate{
			Tab:    target.TabName,
			Date:   col.Date,
			Column: sheets.ColumnLetter(col.Column),
		})
	}
	return updates, nil
}

// SheetUpdate records one filled dashboard column.
type SheetUpdate struct {
	Tab    string `json:"tab"`
	Date   string `json:"date"`
	Column string `json:"column"`
}
