package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spacesedan/verity/config"
	"github.com/spacesedan/verity/internal/bias"
	"github.com/spacesedan/verity/internal/cache"
	"github.com/spacesedan/verity/internal/clients"
	"github.com/spacesedan/verity/internal/monitoring"
	"github.com/spacesedan/verity/internal/processing"
	"github.com/spacesedan/verity/internal/web"
	"github.com/urfave/cli/v2"
)

var (
	portFlag = &cli.IntFlag{
		Name:  "port",
		Usage: "Port on which the server will listen (overrides PORT)",
	}

	serveCmd = &cli.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start the headline dashboard",
		Action:  cmdServe,
		Flags: []cli.Flag{
			portFlag,
		},
	}
)

func cmdServe(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.IsSet(portFlag.Name) {
		cfg.Port = c.Int(portFlag.Name)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := newCache(cfg)
	defer closeStore()

	analyzer := bias.Default()
	news := processing.NewNewsService(
		clients.NewNewsAPIClient(cfg.NewsAPIKey, cfg.NewsAPIBaseURL),
		analyzer,
		store,
		processing.NewsServiceOptions{
			Country:  cfg.NewsCountry,
			Category: cfg.NewsCategory,
			PageSize: cfg.NewsPageSize,
			TTL:      cfg.CacheTTL,
		},
	)

	cacheHealthy := &atomic.Bool{}
	cacheHealthy.Store(true)
	go monitoring.MonitorCacheHealth(ctx, store, cacheHealthy, monitoring.HEALTHCHECK_INTERVAL)

	server, err := web.NewServer(news, analyzer, cacheHealthy)
	if err != nil {
		return err
	}

	return server.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port))
}

// newCache picks the configured backend. An unreachable valkey falls back to
// the in-memory cache so the dashboard keeps working.
func newCache(cfg *config.Config) (cache.Cache, func()) {
	if cfg.CacheBackend == config.CacheBackendValkey {
		vc, err := clients.NewValkeyClient(clients.ValkeyOptions{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			UseTLS:   cfg.ValkeyTLS,
		})
		if err == nil {
			return vc, vc.Close
		}
		slog.Warn("[Main] Valkey unavailable, falling back to memory cache", slog.String("error", err.Error()))
	}

	slog.Info("[Main] Using memory cache", slog.Int("sizeBytes", cfg.CacheSizeBytes))
	return cache.NewMemoryCache(cfg.CacheSizeBytes), func() {}
}
