// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
type Config struct {
	Log      LogConfig               `toml:"log"`
	Database DatabaseConfig          `toml:"database"`
	Scan     ScanConfig              `toml:"scan"`
	Parser   ParserConfig            `toml:"parser"`
	Batch    BatchConfig             `toml:"batch"`
	Output   OutputConfig            `toml:"output"`
	Cache    CacheConfig             `toml:"cache"`
	Sources  map[string]SourceConfig `toml:"sources"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ScanConfig struct {
	Extensions  []string `toml:"extensions"`
	ExcludeDirs []string `toml:"exclude_dirs"`
	MinSizeMB   int64    `toml:"min_size_mb"`
	Filter      string   `toml:"filter"` // regular expression matched against full paths
}

type ParserConfig struct {
	RemovalStrings     []string `toml:"removal_strings"`
	CustomPattern      string   `toml:"custom_pattern"`
	CustomGroups       []int    `toml:"custom_groups"`
	StrictMode         bool     `toml:"strict_mode"`
	UncensoredPrefixes []string `toml:"uncensored_prefixes"`
}

type BatchConfig struct {
	Concurrency    int           `toml:"concurrency"`
	AdapterTimeout time.Duration `toml:"adapter_timeout"`
	BatchTimeout   time.Duration `toml:"batch_timeout"` // 0 means no limit
	IgnoreFailed   bool          `toml:"ignore_failed"`
	Force          bool          `toml:"force"`
	StuckAfter     time.Duration `toml:"stuck_after"`
}

type OutputConfig struct {
	Root         string `toml:"root"`
	Template     string `toml:"template"`
	FileTemplate string `toml:"file_template"`
	LinkMode     string `toml:"link_mode"`
	Sidecar      bool   `toml:"sidecar"`
	Subtitles    bool   `toml:"subtitles"`
}

type CacheConfig struct {
	Enabled bool          `toml:"enabled"`
	TTL     time.Duration `toml:"ttl"`
}

// SourceConfig configures one metadata source. Sources are keyed by adapter name.
type SourceConfig struct {
	Enabled       *bool             `toml:"enabled"` // nil means enabled
	Priority      int               `toml:"priority"`
	BaseURL       string            `toml:"base_url"`
	Cookies       map[string]string `toml:"cookies"`
	CookieHeader  string            `toml:"cookie_header"` // raw "a=1; b=2" as copied from a browser
	RatePerMinute int               `toml:"rate_per_minute"`
	UserAgent     string            `toml:"user_agent"`
	RequireLogin  bool              `toml:"require_login"`
	Locale        string            `toml:"locale"`
}

// IsEnabled reports whether the source should be registered.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// KnownSources are the adapter names a [sources.<name>] table may use.
var KnownSources = []string{"dmm", "javbus", "javdb"}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping Validate. Unresolved environment variables are still an error.
// A .env file next to the config is loaded first; it never overrides variables
// that are already set.
func LoadWithoutValidation(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(filepath.Dir(path), ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{Cache: CacheConfig{Enabled: true}}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(DefaultDataDir(), "codarr.db")
	}
	if len(c.Scan.ExcludeDirs) == 0 {
		c.Scan.ExcludeDirs = []string{"failed", "@eaDir"}
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 4
	}
	if c.Batch.AdapterTimeout == 0 {
		c.Batch.AdapterTimeout = 30 * time.Second
	}
	if c.Batch.StuckAfter == 0 {
		c.Batch.StuckAfter = time.Hour
	}
	if c.Output.LinkMode == "" {
		c.Output.LinkMode = "move"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * 24 * time.Hour
	}
	if len(c.Sources) == 0 {
		c.Sources = map[string]SourceConfig{
			"dmm":    {Priority: 10},
			"javbus": {Priority: 20},
			"javdb":  {Priority: 30},
		}
	}
}

// EnabledSources returns the enabled source configs keyed by name.
func (c *Config) EnabledSources() map[string]SourceConfig {
	out := make(map[string]SourceConfig, len(c.Sources))
	for name, s := range c.Sources {
		if s.IsEnabled() {
			out[name] = s
		}
	}
	return out
}

// envVarPattern matches ${VAR_NAME} and ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// substituteEnvVars replaces variable references with their values. Unset
// variables without a default are left unchanged and returned in missing.
// An empty variable counts as unset when a default is given.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	seen := map[string]bool{}
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name := parts[1]
		hasDefault := strings.HasPrefix(match[2+len(name):], ":-")
		value, ok := os.LookupEnv(name)
		switch {
		case ok && (value != "" || !hasDefault):
			return value
		case hasDefault:
			return parts[2]
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match
	})
	return out, missing
}
