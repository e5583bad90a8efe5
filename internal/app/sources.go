package app

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/vmunix/codarr/internal/config"
	"github.com/vmunix/codarr/internal/metadata"
	"github.com/vmunix/codarr/internal/source"
	"github.com/vmunix/codarr/internal/source/dmm"
	"github.com/vmunix/codarr/internal/source/javbus"
	"github.com/vmunix/codarr/internal/source/javdb"
)

// BuildRegistry creates an adapter for every enabled source. When cache is
// non-nil each adapter is wrapped so repeated lookups are served locally.
func BuildRegistry(cfg *config.Config, cache *metadata.Cache, logger *slog.Logger) (*source.Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var adapters []source.Adapter
	for _, name := range config.KnownSources {
		sc, ok := cfg.Sources[name]
		if !ok || !sc.IsEnabled() {
			continue
		}
		a, err := newAdapter(name, sc, logger)
		if err != nil {
			return nil, err
		}
		if cache != nil && cfg.Cache.Enabled {
			a = metadata.NewCachingAdapter(a, cache, cfg.Cache.TTL, logger)
		}
		adapters = append(adapters, a)
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no sources enabled")
	}
	return source.NewRegistry(adapters...)
}

func newAdapter(name string, sc config.SourceConfig, logger *slog.Logger) (source.Adapter, error) {
	cookies := source.ParseCookieHeader(sc.CookieHeader)
	// Explicit cookie entries win over the pasted header.
	maps.Copy(cookies, sc.Cookies)

	opts := []source.ClientOption{
		source.WithRatePerMinute(sc.RatePerMinute),
		source.WithUserAgent(sc.UserAgent),
		source.WithClientLogger(logger.With("component", "client", "source", name)),
	}

	switch name {
	case dmm.Name:
		return dmm.New(dmm.Config{BaseURL: sc.BaseURL, Priority: sc.Priority, Cookies: cookies}, opts...), nil
	case javbus.Name:
		return javbus.New(javbus.Config{BaseURL: sc.BaseURL, Priority: sc.Priority, Cookies: cookies}, opts...), nil
	case javdb.Name:
		return javdb.New(javdb.Config{
			BaseURL:      sc.BaseURL,
			Priority:     sc.Priority,
			Cookies:      cookies,
			RequireLogin: sc.RequireLogin,
			Locale:       sc.Locale,
		}, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownAdapter, name)
	}
}

// Orchestrator builds an orchestrator over the configured sources, optionally
// restricted to the named subset. Priority still decides walk order.
func (a *App) Orchestrator(only ...string) (*source.Orchestrator, error) {
	var cache *metadata.Cache
	if a.Config.Cache.Enabled {
		cache = a.Cache
	}
	reg, err := BuildRegistry(a.Config, cache, a.Logger)
	if err != nil {
		return nil, err
	}
	if len(only) > 0 {
		if reg, err = reg.Restrict(only...); err != nil {
			return nil, err
		}
	}
	return source.NewOrchestrator(reg, a.Config.Batch.AdapterTimeout, a.Logger), nil
}
