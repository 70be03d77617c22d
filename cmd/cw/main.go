// Package main provides the cw CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath is the --config override for configuration discovery
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cw",
	Short: "Citation reconciliation and impact analytics",
	Long: `cw tracks who cites a set of publications.

It queries OpenAlex and Semantic Scholar for the citing works of each
tracked publication, reconciles the two providers' answers into one
deduplicated set per publication, and persists the result as a JSON
snapshot. The snapshot can be re-aggregated for any cutoff date without
refetching, and the resulting counts can be pushed to Google Sheets
dashboards alongside GitHub repository and engagement-event statistics.

All commands output JSON by default for easy integration with other
tools. Use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env if present (S2_API_KEY, OPENALEX_MAILTO, GitHub tokens)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file")
	rootCmd.Version = Version
}
