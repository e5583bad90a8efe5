package config

import (
	"fmt"
	"regexp"
	"slices"
	"sort"

	"github.com/vmunix/codarr/internal/applier"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if !validLogFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format: must be text or json; got %q", c.Log.Format))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path: required")
	}

	if c.Scan.MinSizeMB < 0 {
		errs = append(errs, "scan.min_size_mb: must not be negative")
	}
	if c.Scan.Filter != "" {
		if _, err := regexp.Compile(c.Scan.Filter); err != nil {
			errs = append(errs, fmt.Sprintf("scan.filter: %v", err))
		}
	}

	errs = append(errs, c.Parser.validate()...)

	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("batch.concurrency: must be at least 1, got %d", c.Batch.Concurrency))
	}
	if c.Batch.AdapterTimeout <= 0 {
		errs = append(errs, "batch.adapter_timeout: must be positive")
	}
	if c.Batch.BatchTimeout > 0 && c.Batch.AdapterTimeout >= c.Batch.BatchTimeout {
		errs = append(errs, fmt.Sprintf("batch.adapter_timeout: %s must be shorter than batch.batch_timeout %s",
			c.Batch.AdapterTimeout, c.Batch.BatchTimeout))
	}

	if c.Output.Root == "" {
		errs = append(errs, "output.root: required")
	}
	if _, err := applier.ParseLinkMode(c.Output.LinkMode); err != nil {
		errs = append(errs, fmt.Sprintf("output.link_mode: %v", err))
	}
	if err := applier.ValidateTemplate(c.Output.Template); err != nil {
		errs = append(errs, fmt.Sprintf("output.template: %v", err))
	}
	if err := applier.ValidateTemplate(c.Output.FileTemplate); err != nil {
		errs = append(errs, fmt.Sprintf("output.file_template: %v", err))
	}

	if c.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl: must not be negative")
	}

	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	enabled := 0
	for _, name := range names {
		s := c.Sources[name]
		if !slices.Contains(KnownSources, name) {
			errs = append(errs, fmt.Sprintf("sources.%s: unknown source, expected one of %v", name, KnownSources))
			continue
		}
		if s.RatePerMinute < 0 {
			errs = append(errs, fmt.Sprintf("sources.%s.rate_per_minute: must not be negative", name))
		}
		if s.IsEnabled() {
			enabled++
		}
	}
	if enabled == 0 {
		errs = append(errs, "sources: at least one source must be enabled")
	}

	return errs
}

func (p ParserConfig) validate() []string {
	if p.CustomPattern == "" {
		if len(p.CustomGroups) > 0 {
			return []string{"parser.custom_groups: set without parser.custom_pattern"}
		}
		return nil
	}
	re, err := regexp.Compile(p.CustomPattern)
	if err != nil {
		return []string{fmt.Sprintf("parser.custom_pattern: %v", err)}
	}
	var errs []string
	for _, g := range p.CustomGroups {
		if g < 0 || g > re.NumSubexp() {
			errs = append(errs, fmt.Sprintf("parser.custom_groups: group %d does not exist in custom_pattern (%d groups)", g, re.NumSubexp()))
		}
	}
	return errs
}
