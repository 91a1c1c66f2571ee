package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	HEALTHCHECK_INTERVAL = 15 * time.Second
	HEALTHCHECK_TIMEOUT  = 3 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) bool
}

// MonitorCacheHealth probes the cache once immediately and then on every tick
// until ctx is done. The latest result is stored in healthy.
func MonitorCacheHealth(ctx context.Context, cache Pinger, healthy *atomic.Bool, interval time.Duration) {
	if interval <= 0 {
		interval = HEALTHCHECK_INTERVAL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	probe(ctx, cache, healthy)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe(ctx, cache, healthy)
		}
	}
}

func probe(ctx context.Context, cache Pinger, healthy *atomic.Bool) {
	pingCtx, cancel := context.WithTimeout(ctx, HEALTHCHECK_TIMEOUT)
	defer cancel()

	isHealthy := cache.Ping(pingCtx)
	if healthy.Swap(isHealthy) != isHealthy {
		if isHealthy {
			slog.Info("[HealthCheck] Cache recovered")
		} else {
			slog.Warn("[HealthCheck] Cache is unhealthy")
		}
	}
}
