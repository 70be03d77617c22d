package main

import (
	"strings"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/spf13/cobra"
)

var (
	pubsAddDOI   string
	pubsAddTitle string
)

var pubsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a publication to the tracked list",
	Long: `Add a publication to the tracked publications file.

At least one of --doi and --title is required. Duplicates are detected
by lookup key (normalized DOI, falling back to trimmed title).

Examples:
  cw pubs add --doi 10.1093/gigascience/giaa062
  cw pubs add --title "Deconstructing the translational tower of babel"`,
	Args: cobra.NoArgs,
	RunE: runPubsAdd,
}

func init() {
	pubsCmd.AddCommand(pubsAddCmd)
	pubsAddCmd.Flags().StringVar(&pubsAddDOI, "doi", "", "DOI of the publication")
	pubsAddCmd.Flags().StringVar(&pubsAddTitle, "title", "", "Title of the publication")
}

func runPubsAdd(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	pub := citation.TrackedPublication{
		Title: strings.TrimSpace(pubsAddTitle),
		DOI:   strings.TrimSpace(pubsAddDOI),
	}
	if !pub.Identified() {
		exitWithError(ExitError, "either --doi or --title is required")
	}

	resp := appendPublication(cfg.Path(cfg.PublicationsFile), pub)
	if humanOutput {
		printPubsAddHuman(resp)
	} else {
		outputJSON(resp)
	}
	return nil
}
