// Package app wires the configured components together for the CLI
// commands.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/deusflow/newsboard/internal/aggregator"
	"github.com/deusflow/newsboard/internal/config"
	"github.com/deusflow/newsboard/internal/logger"
	"github.com/deusflow/newsboard/internal/news"
	"github.com/deusflow/newsboard/internal/proxy"
	"github.com/deusflow/newsboard/internal/ratelimit"
	"github.com/deusflow/newsboard/internal/rss"
	"github.com/deusflow/newsboard/internal/server"
	"github.com/deusflow/newsboard/internal/sources"
	"github.com/deusflow/newsboard/internal/storage"
	"github.com/deusflow/newsboard/internal/weather"
)

// LoadRegistry returns the registry from cfg.SourcesFile, or the built-in
// one when no file is configured.
func LoadRegistry(cfg *config.Config) (*sources.Registry, error) {
	if cfg.SourcesFile == "" {
		return sources.Default(), nil
	}
	reg, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	logger.Info("sources loaded", "file", cfg.SourcesFile, "count", len(reg.All()))
	return reg, nil
}

// NewAggregator builds the fetch pipeline for reg.
func NewAggregator(cfg *config.Config, reg *sources.Registry) *aggregator.Aggregator {
	normalizer := news.NewNormalizer(news.LocaleByName(cfg.DateLocale))
	fetcher := rss.NewFetcher(reg, normalizer,
		rss.WithTimeout(cfg.FetchTimeout),
		rss.WithMaxItems(cfg.MaxItemsPerSource),
	)
	return aggregator.New(reg.All(), fetcher, cfg.RefreshInterval)
}

// App holds everything the serve command runs.
type App struct {
	cfg        *config.Config
	aggregator *aggregator.Aggregator
	store      storage.Store
	weather    *weather.Service
	limiter    *ratelimit.Limiter
	server     *server.Server
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	reg, err := LoadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open message store: %w", err)
	}
	if err := storage.Seed(ctx, store); err != nil {
		store.Close()
		return nil, err
	}

	trusted, err := ratelimit.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		aggregator: NewAggregator(cfg, reg),
		store:      store,
		limiter:    ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, trusted...),
		weather: weather.NewService(weather.Config{
			Latitude:  cfg.WeatherLatitude,
			Longitude: cfg.WeatherLongitude,
			Location:  cfg.WeatherLocation,
			Days:      cfg.WeatherDays,
			TTL:       cfg.WeatherCacheTTL,
		}, &http.Client{Timeout: cfg.FetchTimeout}),
	}

	a.server = server.New(server.Options{
		News:             a.aggregator,
		Gateway:          proxy.NewGateway(cfg.FetchTimeout),
		RSSHosts:         cfg.RSSProxyHosts,
		ImageHosts:       cfg.ImageProxyHosts,
		Limiter:          a.limiter,
		Store:            a.store,
		Weather:          a.weather,
		ImageProxyPrefix: cfg.ImageProxyPrefix,
	})
	return a, nil
}

// Serve refreshes news in the background and serves HTTP until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	go a.aggregator.Run(ctx)
	go a.limiter.Run(ctx.Done())

	logger.Info("newsboard starting",
		"addr", a.cfg.Addr(),
		"sources", a.aggregator.SourceIDs(),
		"refresh_interval", a.aggregator.Interval(),
		"store", a.cfg.DBDriver,
	)
	return a.server.Run(ctx, a.cfg.Addr())
}

func (a *App) Close() error {
	a.weather.Close()
	return a.store.Close()
}

// FetchOnce runs one refresh cycle and writes the merged feed for ids as
// indented JSON.
func FetchOnce(ctx context.Context, cfg *config.Config, ids []string, w io.Writer) error {
	reg, err := LoadRegistry(cfg)
	if err != nil {
		return err
	}
	resp, err := NewAggregator(cfg, reg).News(ctx, ids)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// ListSources writes one line per configured source with its fetch URLs.
func ListSources(cfg *config.Config, w io.Writer) error {
	reg, err := LoadRegistry(cfg)
	if err != nil {
		return err
	}
	for _, src := range reg.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", src.ID, src.Type, src.Name)
		for i, u := range reg.Strategies(src) {
			label := "primary"
			if i > 0 {
				label = fmt.Sprintf("fallback %d", i)
			}
			fmt.Fprintf(w, "\t%s: %s\n", label, u)
		}
	}
	return nil
}
