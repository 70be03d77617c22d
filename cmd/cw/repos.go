package main

import (
	"context"

	"github.com/frantsen/citewatch/internal/ghstats"
	"github.com/spf13/cobra"
)

var (
	reposDates      []string
	reposOrg        string
	reposSkipSheets bool
	reposSkipIssues bool
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Collect GitHub repository statistics for the organization",
	Long: `Sum forks and stars over the organization's public repositories
created on or before each cutoff date, and report closed-issue counts
with the median days to close. Counts are pushed to the configured
dashboard sheet where date columns are still unfilled.

Reads the API token from GITHUB_PUBLIC_REPO_TOKEN or GITHUB_TOKEN;
without a token the public API quota applies.

Examples:
  cw repos
  cw repos --dates 2025-03-31 --org NCATSTranslator
  cw repos --skip-issues --skip-sheets --human`,
	Args: cobra.NoArgs,
	RunE: runRepos,
}

func init() {
	rootCmd.AddCommand(reposCmd)
	reposCmd.Flags().StringSliceVar(&reposDates, "dates", nil, "Cutoff dates (YYYY-MM-DD, default today)")
	reposCmd.Flags().StringVar(&reposOrg, "org", "", "GitHub organization (overrides config)")
	reposCmd.Flags().BoolVar(&reposSkipSheets, "skip-sheets", false, "Do not write results to the sheet")
	reposCmd.Flags().BoolVar(&reposSkipIssues, "skip-issues", false, "Skip the issue-resolution statistics")
}

// ReposReport is the JSON output of cw repos.
type ReposReport struct {
	Org          string           `json:"org"`
	Results      []RepoDateResult `json:"results"`
	SheetUpdates []SheetUpdate    `json:"sheet_updates,omitempty"`
}

// RepoDateResult pairs one cutoff date with the organization's stats.
type RepoDateResult struct {
	Date string `json:"date"`
	ghstats.RepoStats
	Issues *ghstats.IssueStats `json:"issues,omitempty"`
}

func runRepos(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	org := reposOrg
	if org == "" {
		org = cfg.GitHub.Org
	}
	if org == "" {
		exitWithError(ExitConfigError, "no GitHub organization configured (set github.org or pass --org)")
	}

	dates, err := resolveDates(reposDates)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	client := ghstats.NewClient(ctx, ghstats.TokenFromEnv())
	report := ReposReport{Org: org}
	for _, d := range dates {
		stats, err := client.CollectRepoStats(ctx, org, d.cutoff)
		if err != nil {
			exitGitHubError(err)
		}
		res := RepoDateResult{Date: d.text, RepoStats: stats}
		if !reposSkipIssues {
			issues, err := client.CollectIssueStats(ctx, org, d.cutoff)
			if err != nil {
				exitGitHubError(err)
			}
			res.Issues = &issues
		}
		report.Results = append(report.Results, res)
	}

	target := cfg.Sheets.GitHubStats
	if target.Configured() && !reposSkipSheets {
		svc, err := newSheetsService(ctx, cfg)
		if err != nil {
			exitWithError(ExitError, "sheets: %v", err)
		}
		measures := measuresOr(target.Measures, []string{"total_forks", "total_stars"})
		updates, err := fillPendingColumns(ctx, svc, target, measures, func(d dateArg) (map[string]interface{}, error) {
			stats, err := client.CollectRepoStats(ctx, org, d.cutoff)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"total_forks": stats.TotalForks,
				"total_stars": stats.TotalStars,
			}, nil
		})
		if err != nil {
			exitGitHubError(err)
		}
		report.SheetUpdates = updates
	}

	if humanOutput {
		printReposHuman(report)
	} else {
		outputJSON(report)
	}
	return nil
}

func exitGitHubError(err error) {
	if ghstats.IsRateLimited(err) {
		exitWithError(ExitError, "GitHub rate limit exhausted: %v", err)
	}
	exitWithError(ExitError, "%v", err)
}

func printReposHuman(report ReposReport) {
	outputHuman("organization %s\n", report.Org)
	for _, r := range report.Results {
		outputHuman("%s: %d repos, %d forks, %d stars\n", r.Date, r.Repos, r.TotalForks, r.TotalStars)
		if r.Issues != nil {
			outputHuman("  %d closed issues, median %.1f days to close\n", r.Issues.ClosedIssues, r.Issues.MedianDays)
		}
	}
	for _, u := range report.SheetUpdates {
		outputHuman("sheet %s: filled column %s (%s)\n", u.Tab, u.Column, u.Date)
	}
}
