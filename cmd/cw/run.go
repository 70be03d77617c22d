package main

import (
	"context"
	"time"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/config"
	"github.com/frantsen/citewatch/internal/pipeline"
	"github.com/frantsen/citewatch/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	runDates       []string
	runDryRun      bool
	runSkipSheets  bool
	runCache       bool
	runConcurrency int
	runDelay       float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, merge and persist citations for all tracked publications",
	Long: `Run the full collection pipeline.

Every tracked publication is looked up at OpenAlex and Semantic Scholar,
the providers' citing works are merged into one deduplicated set per
publication, and the complete mapping is written to the snapshot file.
The snapshot is then aggregated for the requested cutoff dates, and the
counts are pushed to the configured dashboard sheet where date columns
are still unfilled.

Examples:
  cw run
  cw run --dates 2025-03-31,2025-06-30
  cw run --dry-run --human
  cw run --cache --concurrency 4`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceVar(&runDates, "dates", nil, "Cutoff dates to aggregate (YYYY-MM-DD, default today)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Fetch and aggregate without writing the snapshot or the sheet")
	runCmd.Flags().BoolVar(&runSkipSheets, "skip-sheets", false, "Do not write results to the sheet")
	runCmd.Flags().BoolVar(&runCache, "cache", false, "Cache provider responses even when the configuration disables it")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "Number of concurrent publication fetches (overrides config)")
	runCmd.Flags().Float64Var(&runDelay, "delay", 0, "Seconds to pause between publications (overrides config)")
}

// RunReport is the JSON output of cw run.
type RunReport struct {
	SnapshotPath string                       `json:"snapshot_path,omitempty"`
	DryRun       bool                         `json:"dry_run,omitempty"`
	Publications []pipeline.PublicationReport `json:"publications"`
	Results      []DateResult                 `json:"results"`
	SheetUpdates []SheetUpdate                `json:"sheet_updates,omitempty"`
}

// DateResult pairs one cutoff date with its aggregate counts.
type DateResult struct {
	Date string `json:"date"`
	citation.Result
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	dates, err := resolveDates(runDates)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	pubs, warnings, err := config.LoadPublications(cfg.Path(cfg.PublicationsFile))
	for _, w := range warnings {
		warnf("%s", w)
	}
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	delay := cfg.Delay()
	if cmd.Flags().Changed("delay") {
		if runDelay < 0 {
			exitWithError(ExitError, "--delay must not be negative")
		}
		delay = time.Duration(runDelay * float64(time.Second))
	}
	workers := cfg.Fetch.Concurrency
	if cmd.Flags().Changed("concurrency") {
		workers = runConcurrency
	}

	srcs, cleanup := buildSources(cfg, runCache)
	defer cleanup()

	runner := pipeline.New(srcs, pipeline.WithDelay(delay), pipeline.WithWorkers(workers))
	result, err := runner.Run(ctx, pubs)
	if err != nil {
		exitWithError(ExitError, "run interrupted: %v", err)
	}

	report := RunReport{
		DryRun:       runDryRun,
		Publications: result.Reports,
	}

	if !runDryRun {
		path := cfg.Path(cfg.SnapshotFile)
		if err := snapshot.Write(path, result.Snapshot); err != nil {
			exitWithError(ExitError, "writing snapshot: %v", err)
		}
		report.SnapshotPath = path
	}

	for _, d := range dates {
		res := citation.Aggregate(result.Snapshot, d.cutoff)
		report.Results = append(report.Results, DateResult{Date: d.text, Result: res})
	}

	target := cfg.Sheets.PublicationsStats
	if target.Configured() && !runSkipSheets && !runDryRun {
		svc, err := newSheetsService(ctx, cfg)
		if err != nil {
			exitWithError(ExitError, "sheets: %v", err)
		}
		measures := measuresOr(target.Measures, []string{"num_original_pubs", "num_citing_pubs"})
		updates, err := fillPendingColumns(ctx, svc, target, measures, func(d dateArg) (map[string]interface{}, error) {
			res := citation.Aggregate(result.Snapshot, d.cutoff)
			return map[string]interface{}{
				"num_original_pubs": res.NumOriginalPubs,
				"num_citing_pubs":   res.NumCitingPubs,
			}, nil
		})
		if err != nil {
			exitWithError(ExitError, "updating sheet: %v", err)
		}
		report.SheetUpdates = updates
	}

	if humanOutput {
		printRunHuman(report)
	} else {
		outputJSON(report)
	}
	return nil
}

func printRunHuman(report RunReport) {
	for _, p := range report.Publications {
		if p.Skipped {
			continue
		}
		outputHuman("%s: %d citing works\n", p.Key, p.Merged)
	}
	if report.SnapshotPath != "" {
		outputHuman("snapshot written to %s\n", report.SnapshotPath)
	}
	for _, r := range report.Results {
		outputHuman("%s: %d publications cited, %d distinct citing works\n", r.Date, r.NumOriginalPubs, r.NumCitingPubs)
	}
	for _, u := range report.SheetUpdates {
		outputHuman("sheet %s: filled column %s (%s)\n", u.Tab, u.Column, u.Date)
	}
}
