package main

import (
	"context"

	"github.com/frantsen/citewatch/internal/events"
	"github.com/spf13/cobra"
)

var (
	eventsDates      []string
	eventsSkipSheets bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Collect engagement event statistics from the tracking worksheet",
	Long: `Read the engagement rows from the configured source worksheet and
count, per team and cutoff date, the events with more than one engaged
user and the people they reached (lower bound of the attendance range).
Cross-team totals are pushed to the configured dashboard sheet where
date columns are still unfilled.

Examples:
  cw events
  cw events --dates 2025-02-28,2025-03-31 --human
  cw events --skip-sheets`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringSliceVar(&eventsDates, "dates", nil, "Cutoff dates (YYYY-MM-DD, default today)")
	eventsCmd.Flags().BoolVar(&eventsSkipSheets, "skip-sheets", false, "Do not write totals to the dashboard sheet")
}

// EventsReport is the JSON output of cw events.
type EventsReport struct {
	Results      []EventDateResult `json:"results"`
	SheetUpdates []SheetUpdate     `json:"sheet_updates,omitempty"`
}

// EventDateResult is the per-team engagement breakdown for one cutoff.
type EventDateResult struct {
	Date        string                      `json:"date"`
	Teams       map[string]events.TeamStats `json:"teams"`
	TotalEvents int                         `json:"total_events"`
	TotalPeople int                         `json:"total_people"`
}

func runEvents(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	target := cfg.Sheets.EventsStats
	if target.SourceSheetID == "" || target.SourceTabName == "" {
		exitWithError(ExitConfigError, "no engagement source worksheet configured (set sheets.events_stats.source_sheet_id and source_tab_name)")
	}

	dates, err := resolveDates(eventsDates)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		exitWithError(ExitError, "sheets: %v", err)
	}
	grid, err := svc.Values(ctx, target.SourceSheetID, target.SourceTabName)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	rows, err := events.RowsFromGrid(grid)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	var report EventsReport
	for i, d := range dates {
		stats, warnings := events.Aggregate(rows, d.cutoff)
		// Row problems are the same for every cutoff, report them once.
		if i == 0 {
			for _, w := range warnings {
				warnf("%s", w)
			}
		}
		totalEvents, totalPeople := events.Totals(stats)
		report.Results = append(report.Results, EventDateResult{
			Date:        d.text,
			Teams:       stats,
			TotalEvents: totalEvents,
			TotalPeople: totalPeople,
		})
	}

	if target.Configured() && !eventsSkipSheets {
		measures := measuresOr(target.Measures, []string{"total_events", "total_people"})
		updates, err := fillPendingColumns(ctx, svc, target, measures, func(d dateArg) (map[string]interface{}, error) {
			stats, _ := events.Aggregate(rows, d.cutoff)
			totalEvents, totalPeople := events.Totals(stats)
			return map[string]interface{}{
				"total_events": totalEvents,
				"total_people": totalPeople,
			}, nil
		})
		if err != nil {
			exitWithError(ExitError, "updating sheet: %v", err)
		}
		report.SheetUpdates = updates
	}

	if humanOutput {
		printEventsHuman(report)
	} else {
		outputJSON(report)
	}
	return nil
}

func printEventsHuman(report EventsReport) {
	for _, r := range report.Results {
		outputHuman("%s: %d events, %d people\n", r.Date, r.TotalEvents, r.TotalPeople)
		for _, team := range events.Teams(r.Teams) {
			stats := r.Teams[team]
			outputHuman("  %s: %d events, %d people\n", team, stats.Events, stats.People)
		}
	}
	for _, u := range report.SheetUpdates {
		outputHuman("sheet %s: filled column %s (%s)\n", u.Tab, u.Column, u.Date)
	}
}
