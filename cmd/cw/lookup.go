package main

import (
	"context"
	"os"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/source"
	"github.com/spf13/cobra"
)

var (
	lookupDOI      string
	lookupTitle    string
	lookupProvider string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Fetch and merge the citation set for a single publication",
	Long: `Look up one publication at the providers and print its merged
citing works, without touching the publications list or the snapshot.

The DOI is preferred as the lookup key; the title is used only when no
DOI is given. Exits non-zero when no provider knows the publication.

Examples:
  cw lookup --doi 10.1038/nature12373
  cw lookup --title "Deconstructing the translational tower of babel" --provider openalex
  cw lookup --doi 10.1093/gigascience/giaa062 --human`,
	Args: cobra.NoArgs,
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVar(&lookupDOI, "doi", "", "DOI of the publication")
	lookupCmd.Flags().StringVar(&lookupTitle, "title", "", "Title of the publication (used when no DOI is given)")
	lookupCmd.Flags().StringVar(&lookupProvider, "provider", "", "Query a single provider (openalex or semanticscholar)")
}

// LookupReport is the JSON output of cw lookup.
type LookupReport struct {
	Key       string            `json:"key"`
	Providers []ProviderLookup  `json:"providers"`
	Citations []citation.Record `json:"citations"`
	Merged    int               `json:"merged_citations"`
}

// ProviderLookup is one provider's answer for the looked-up publication.
type ProviderLookup struct {
	Provider    string              `json:"provider"`
	Status      source.Status       `json:"status"`
	Reason      string              `json:"reason,omitempty"`
	Publication *source.Publication `json:"publication,omitempty"`
	Citations   int                 `json:"citations"`
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	pub := citation.TrackedPublication{Title: lookupTitle, DOI: lookupDOI}
	if !pub.Identified() {
		exitWithError(ExitError, "either --doi or --title is required")
	}

	srcs, cleanup := buildSources(cfg, false)
	defer cleanup()
	if lookupProvider != "" {
		var filtered []source.Source
		for _, src := range srcs {
			if src.Name() == lookupProvider {
				filtered = append(filtered, src)
			}
		}
		if len(filtered) == 0 {
			exitWithError(ExitError, "unknown provider %q (want %s or %s)",
				lookupProvider, citation.SourceOpenAlex, citation.SourceSemanticScholar)
		}
		srcs = filtered
	}

	report := LookupReport{Key: pub.Key()}
	var all []citation.Record
	found := false
	for _, src := range srcs {
		bundle := source.Fetch(ctx, src, pub)
		lookup := ProviderLookup{
			Provider:  src.Name(),
			Status:    bundle.Status,
			Reason:    bundle.Reason,
			Citations: len(bundle.Citations),
		}
		if bundle.Status == source.StatusFound {
			found = true
			info := bundle.Publication
			lookup.Publication = &info
		}
		report.Providers = append(report.Providers, lookup)
		all = append(all, bundle.Citations...)
	}
	report.Citations = citation.Merge(all)
	report.Merged = len(report.Citations)

	if humanOutput {
		printLookupHuman(report)
	} else {
		outputJSON(report)
	}
	if !found {
		os.Exit(ExitError)
	}
	return nil
}

func printLookupHuman(report LookupReport) {
	for _, p := range report.Providers {
		switch p.Status {
		case source.StatusFound:
			outputHuman("%s: found", p.Provider)
			if p.Publication != nil && p.Publication.Title != "" {
				outputHuman(" %q", p.Publication.Title)
			}
			outputHuman(" with %d citing works\n", p.Citations)
		case source.StatusNotFound:
			outputHuman("%s: no match\n", p.Provider)
		case source.StatusError:
			outputHuman("%s: error: %s\n", p.Provider, p.Reason)
		}
	}
	outputHuman("%d unique citing works\n", report.Merged)
	for _, c := range report.Citations {
		outputHuman("  %s", c.Title)
		if c.DOI != "" {
			outputHuman(" [%s]", c.DOI)
		}
		if c.PublicationDate != "" {
			outputHuman(" (%s)", c.PublicationDate)
		}
		outputHuman("\n")
	}
}
