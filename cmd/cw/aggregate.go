package main

import (
	"errors"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	aggregateSnapshot string
	aggregateDates    []string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute citation counts from an existing snapshot",
	Long: `Aggregate a previously written snapshot for one or more cutoff dates.

No network calls are made: the counts are recomputed entirely from the
snapshot file, so any historical cutoff can be evaluated after the fact.

Examples:
  cw aggregate
  cw aggregate --dates 2024-12-31,2025-03-31
  cw aggregate --snapshot old/all_citing_papers_by_doi.json --human`,
	Args: cobra.NoArgs,
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggregateCmd.Flags().StringVar(&aggregateSnapshot, "snapshot", "", "Snapshot file to read (default from config)")
	aggregateCmd.Flags().StringSliceVar(&aggregateDates, "dates", nil, "Cutoff dates to aggregate (YYYY-MM-DD, default today)")
}

// AggregateReport is the JSON output of cw aggregate.
type AggregateReport struct {
	SnapshotPath string       `json:"snapshot_path"`
	Publications int          `json:"publications"`
	Results      []DateResult `json:"results"`
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	dates, err := resolveDates(aggregateDates)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	path := aggregateSnapshot
	if path == "" {
		path = cfg.Path(cfg.SnapshotFile)
	}
	snap, err := snapshot.Load(path)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			exitWithError(ExitDataError, "%v (run 'cw run' first)", err)
		}
		exitWithError(ExitDataError, "%v", err)
	}

	report := AggregateReport{SnapshotPath: path, Publications: len(snap)}
	for _, d := range dates {
		res := citation.Aggregate(snap, d.cutoff)
		report.Results = append(report.Results, DateResult{Date: d.text, Result: res})
	}

	if humanOutput {
		outputHuman("snapshot %s: %d publications\n", report.SnapshotPath, report.Publications)
		for _, r := range report.Results {
			outputHuman("%s: %d publications cited, %d distinct citing works\n", r.Date, r.NumOriginalPubs, r.NumCitingPubs)
		}
	} else {
		outputJSON(report)
	}
	return nil
}
