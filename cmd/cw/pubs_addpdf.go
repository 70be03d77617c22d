package main

import (
	"strings"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/pdf"
	"github.com/spf13/cobra"
)

var pubsAddPDFTitle string

var pubsAddPDFCmd = &cobra.Command{
	Use:   "add-pdf <pdf-file>",
	Short: "Add a publication by extracting its DOI from a PDF",
	Long: `Extract the DOI from a local PDF and add it to the tracked list.

The first pages of the PDF are scanned for a DOI-shaped token. When no
--title is given, a title is guessed from the first page. A PDF without
a recognizable DOI is a data error (exit code 3).

Examples:
  cw pubs add-pdf paper.pdf
  cw pubs add-pdf paper.pdf --title "A cell atlas of the larval zebrafish"`,
	Args: cobra.ExactArgs(1),
	RunE: runPubsAddPDF,
}

func init() {
	pubsCmd.AddCommand(pubsAddPDFCmd)
	pubsAddPDFCmd.Flags().StringVar(&pubsAddPDFTitle, "title", "", "Title to record alongside the extracted DOI")
}

func runPubsAddPDF(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	path := args[0]

	doi, err := pdf.ExtractDOI(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	title := strings.TrimSpace(pubsAddPDFTitle)
	if title == "" {
		if guessed, err := pdf.ExtractTitle(path); err == nil {
			title = guessed
		}
	}

	resp := appendPublication(cfg.Path(cfg.PublicationsFile), citation.TrackedPublication{
		Title: title,
		DOI:   doi,
	})
	if humanOutput {
		printPubsAddHuman(resp)
	} else {
		outputJSON(resp)
	}
	return nil
}
