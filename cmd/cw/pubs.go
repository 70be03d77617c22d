package main

import (
	"errors"
	"os"

	"github.com/frantsen/citewatch/internal/citation"
	"github.com/frantsen/citewatch/internal/config"
	"github.com/spf13/cobra"
)

var pubsCmd = &cobra.Command{
	Use:   "pubs",
	Short: "Manage the tracked publications list",
	Long: `Commands for the tracked publications file.

The file holds the publications whose citations cw collects. Entries
carry a title, a DOI, or both; the DOI is preferred as the lookup key.`,
}

var pubsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tracked publications",
	Args:  cobra.NoArgs,
	RunE:  runPubsList,
}

func init() {
	rootCmd.AddCommand(pubsCmd)
	pubsCmd.AddCommand(pubsListCmd)
}

// PubsListResponse is the JSON output of cw pubs list.
type PubsListResponse struct {
	Path         string                        `json:"path"`
	Count        int                           `json:"count"`
	Publications []citation.TrackedPublication `json:"publications"`
}

// PubsAddResponse is the JSON output of the pubs add commands.
type PubsAddResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	Title  string `json:"title,omitempty"`
	DOI    string `json:"doi,omitempty"`
	Count  int    `json:"count"`
}

func runPubsList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	path := cfg.Path(cfg.PublicationsFile)
	pubs := loadPublicationsForEdit(path)

	resp := PubsListResponse{Path: path, Count: len(pubs), Publications: pubs}
	if resp.Publications == nil {
		resp.Publications = []citation.TrackedPublication{}
	}

	if humanOutput {
		if len(pubs) == 0 {
			outputHuman("no tracked publications in %s\n", path)
			return nil
		}
		for i, p := range pubs {
			outputHuman("%d. ", i+1)
			if p.Title != "" {
				outputHuman("%s", p.Title)
			} else {
				outputHuman("(untitled)")
			}
			if p.DOI != "" {
				outputHuman(" [%s]", p.DOI)
			}
			outputHuman("\n")
		}
		return nil
	}
	return outputJSON(resp)
}

// loadPublicationsForEdit reads the current list, tolerating a missing
// file and a file with no usable entries. Any other load failure is a
// configuration error.
func loadPublicationsForEdit(path string) []citation.TrackedPublication {
	pubs, warnings, err := config.LoadPublications(path)
	for _, w := range warnings {
		warnf("%s", w)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) && !errors.Is(err, config.ErrNoPublications) {
		exitWithError(ExitConfigError, "%v", err)
	}
	return pubs
}

// appendPublication adds one publication to the list, refusing
// duplicates by lookup key, and saves the file.
func appendPublication(path string, pub citation.TrackedPublication) PubsAddResponse {
	pubs := loadPublicationsForEdit(path)
	key := pub.Key()
	for _, existing := range pubs {
		if existing.Key() == key {
			exitWithError(ExitError, "already tracked: %s", key)
		}
	}
	pubs = append(pubs, pub)
	if err := config.SavePublications(path, pubs); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return PubsAddResponse{
		Status: "added",
		Path:   path,
		Title:  pub.Title,
		DOI:    pub.DOI,
		Count:  len(pubs),
	}
}

func printPubsAddHuman(resp PubsAddResponse) {
	outputHuman("added")
	if resp.Title != "" {
		outputHuman(" %q", resp.Title)
	}
	if resp.DOI != "" {
		outputHuman(" [%s]", resp.DOI)
	}
	outputHuman(" (%d tracked)\n", resp.Count)
}
