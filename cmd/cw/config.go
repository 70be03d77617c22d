package main

import (
	"os"

	"github.com/frantsen/citewatch/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the resolved configuration",
	Long: `Display the configuration after discovery and defaulting.

Shows where the configuration file was found (--config, then
$CITEWATCH_CONFIG, then a walk-up from the working directory), with the
built-in defaults filled in for every omitted value.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// ConfigShowResponse is the JSON output of cw config show.
type ConfigShowResponse struct {
	Path   string         `json:"path,omitempty"`
	Config *config.Config `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Discover(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		if path != "" {
			outputHuman("# %s\n", path)
		} else {
			outputHuman("# built-in defaults (no %s found)\n", config.ConfigFile)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		os.Stdout.Write(data)
		return nil
	}
	return outputJSON(ConfigShowResponse{Path: path, Config: cfg})
}

const starterConfig = `# citewatch configuration
publications_file: publications.json
snapshot_file: all_citing_papers_by_doi.json

fetch:
  delay_seconds: 2
  concurrency: 1

providers:
  openalex:
    rate_per_second: 10
    # mailto: team@example.org        # polite pool
  semanticscholar:
    rate_per_second: 1                # api key via S2_API_KEY

cache:
  enabled: false
  path: citewatch-cache.db
  ttl_hours: 168

# sheets:
#   credentials_file: credentials.json
#   publications_stats:
#     sheet_id: "..."
#     tab_name: population
#     date_row: 1
#     data_row: 2
#     measures: [num_original_pubs, num_citing_pubs]
#   github_stats:
#     sheet_id: "..."
#     tab_name: community
#     date_row: 1
#     data_row: 2
#     measures: [total_forks, total_stars]
#   events_stats:
#     sheet_id: "..."
#     tab_name: events
#     date_row: 1
#     data_row: 2
#     source_sheet_id: "..."
#     source_tab_name: User engagement beyond A&C

# github:
#   org: NCATSTranslator
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.ConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		exitWithError(ExitError, "%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", path, err)
	}

	if humanOutput {
		outputHuman("wrote %s\n", path)
	} else {
		outputJSON(StatusResponse{Status: "created", Path: path})
	}
	return nil
}
