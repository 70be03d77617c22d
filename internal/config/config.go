// Package config handles citewatch configuration discovery and loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frantsen/citewatch/internal/snapshot"
)

const (
	// ConfigFile is the file name searched for during walk-up discovery.
	ConfigFile = "citewatch.yml"
	// EnvConfigPath overrides discovery when set.
	EnvConfigPath = "CITEWATCH_CONFIG"
)

// Config is the citewatch.yml schema. Values omitted from the file keep
// their defaults, so a missing file yields a usable configuration.
type Config struct {
	PublicationsFile string       `yaml:"publications_file,omitempty" json:"publications_file,omitempty"`
	SnapshotFile     string       `yaml:"snapshot_file,omitempty" json:"snapshot_file,omitempty"`
	Fetch            FetchConfig  `yaml:"fetch,omitempty" json:"fetch"`
	Providers        Providers    `yaml:"providers,omitempty" json:"providers"`
	Cache            CacheConfig  `yaml:"cache,omitempty" json:"cache"`
	Sheets           SheetsConfig `yaml:"sheets,omitempty" json:"sheets,omitempty"`
	GitHub           GitHubConfig `yaml:"github,omitempty" json:"github,omitempty"`

	// Dir is the directory holding the loaded file, used to resolve
	// relative paths. Empty when running on pure defaults.
	Dir string `yaml:"-" json:"-"`
}

// FetchConfig controls pacing of the collection run.
type FetchConfig struct {
	DelaySeconds float64 `yaml:"delay_seconds" json:"delay_seconds"`
	Concurrency  int     `yaml:"concurrency,omitempty" json:"concurrency"`
}

// Providers holds per-provider client settings.
type Providers struct {
	OpenAlex        ProviderConfig `yaml:"openalex,omitempty" json:"openalex"`
	SemanticScholar ProviderConfig `yaml:"semanticscholar,omitempty" json:"semanticscholar"`
}

// ProviderConfig tunes one provider client. The API key for Semantic
// Scholar comes from the environment, not from this file.
type ProviderConfig struct {
	Mailto        string  `yaml:"mailto,omitempty" json:"mailto,omitempty"`
	RatePerSecond float64 `yaml:"rate_per_second,omitempty" json:"rate_per_second"`
}

// CacheConfig controls the local fetch cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty" json:"enabled"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	TTLHours int    `yaml:"ttl_hours,omitempty" json:"ttl_hours"`
}

// SheetsConfig locates the spreadsheet targets for stat uploads.
type SheetsConfig struct {
	CredentialsFile   string      `yaml:"credentials_file,omitempty" json:"credentials_file,omitempty"`
	PublicationsStats StatsTarget `yaml:"publications_stats,omitempty" json:"publications_stats,omitempty"`
	GitHubStats       StatsTarget `yaml:"github_stats,omitempty" json:"github_stats,omitempty"`
	EventsStats       StatsTarget `yaml:"events_stats,omitempty" json:"events_stats,omitempty"`
}

// StatsTarget names one worksheet and its layout. DateRow and DataRow
// are one-based sheet row numbers; measure i is written at row
// DataRow+i under each pending date column. Events targets also name
// the source sheet the attendance rows are read from.
type StatsTarget struct {
	SheetID       string   `yaml:"sheet_id,omitempty" json:"sheet_id,omitempty"`
	TabName       string   `yaml:"tab_name,omitempty" json:"tab_name,omitempty"`
	DateRow       int      `yaml:"date_row,omitempty" json:"date_row,omitempty"`
	DataRow       int      `yaml:"data_row,omitempty" json:"data_row,omitempty"`
	Measures      []string `yaml:"measures,omitempty" json:"measures,omitempty"`
	SourceSheetID string   `yaml:"source_sheet_id,omitempty" json:"source_sheet_id,omitempty"`
	SourceTabName string   `yaml:"source_tab_name,omitempty" json:"source_tab_name,omitempty"`
}

// Configured reports whether the target names a spreadsheet.
func (t StatsTarget) Configured() bool {
	return t.SheetID != ""
}

// GitHubConfig names the organization whose repositories are analyzed.
type GitHubConfig struct {
	Org string `yaml:"org,omitempty" json:"org,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PublicationsFile: "publications.json",
		SnapshotFile:     snapshot.DefaultFileName,
		Fetch: FetchConfig{
			DelaySeconds: 2,
			Concurrency:  1,
		},
		Providers: Providers{
			OpenAlex:        ProviderConfig{RatePerSecond: 10},
			SemanticScholar: ProviderConfig{RatePerSecond: 1},
		},
		Cache: CacheConfig{
			Path:     "citewatch-cache.db",
			TTLHours: 168,
		},
	}
}

// Discover resolves the configuration file path. An explicit flag path
// wins, then $CITEWATCH_CONFIG, then a walk-up from the working
// directory. An empty path with nil error means no file was found and
// the defaults apply.
func Discover(flagPath string) (string, error) {
	if flagPath != "" {
		if _, err := os.Stat(flagPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", flagPath)
		}
		return flagPath, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", fmt.Errorf("config file not found: %s (from %s)", env, EnvConfigPath)
		}
		return env, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return findUp(wd), nil
}

// findUp walks from dir toward the filesystem root looking for
// ConfigFile. Returns the empty string when none exists.
func findUp(dir string) string {
	for {
		candidate := filepath.Join(dir, ConfigFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads the configuration file at path, layered over the defaults.
// An empty path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg.Dir = filepath.Dir(abs)
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Fetch.DelaySeconds < 0 {
		return fmt.Errorf("fetch.delay_seconds must not be negative")
	}
	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("fetch.concurrency must not be negative")
	}
	if c.Providers.OpenAlex.RatePerSecond <= 0 {
		return fmt.Errorf("providers.openalex.rate_per_second must be positive")
	}
	if c.Providers.SemanticScholar.RatePerSecond <= 0 {
		return fmt.Errorf("providers.semanticscholar.rate_per_second must be positive")
	}
	if c.Cache.TTLHours < 0 {
		return fmt.Errorf("cache.ttl_hours must not be negative")
	}
	return nil
}

// Path resolves a configured file name against the config file's
// directory. Absolute names, and any name when no config file was
// loaded, pass through unchanged.
func (c *Config) Path(name string) string {
	if c.Dir == "" || name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// Delay returns the inter-publication pause as a duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Fetch.DelaySeconds * float64(time.Second))
}

// CacheTTL returns the cache entry lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}
