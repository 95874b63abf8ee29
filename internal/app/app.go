// Package app assembles the forecast pipeline shared by the Lambda and HTTP entry points.
package app

import (
	"context"
	"fmt"

	"github.com/bbernstein/eventcast/internal/cache"
	"github.com/bbernstein/eventcast/internal/config"
	"github.com/bbernstein/eventcast/internal/forecast"
	"github.com/bbernstein/eventcast/internal/handler"
	"github.com/bbernstein/eventcast/internal/metno"
	"github.com/bbernstein/eventcast/pkg/http/client"
)

type App struct {
	Service *forecast.Service
	Handler *handler.ForecastHandler
	Store   cache.Store
}

// New wires the met.no fetcher, the cache store and the forecast service
func New(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig) (*App, error) {
	if cacheCfg == nil {
		cacheCfg = config.GetCacheConfig()
	}

	httpClient := client.New(client.Options{
		BaseURL:   cfg.WeatherBaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.HTTPTimeout,
	})
	fetcher := metno.NewFetcher(httpClient, metno.DefaultBreakerSettings())

	store, err := cache.NewStore(ctx, cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("creating cache store: %w", err)
	}

	service := forecast.NewService(fetcher.Fetch, store, forecast.WithCacheTTL(cacheCfg.TTL))
	return &App{
		Service: service,
		Handler: handler.NewForecastHandler(service),
		Store:   store,
	}, nil
}

// Close releases connections held by the cache store, if any
func (a *App) Close() error {
	if closer, ok := a.Store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
