package jobs

import (
	"context"
	"log"
	"time"

	"registro/attendance/internal/config"
)

type warmer interface {
	Warm(ctx context.Context) error
}

// StartCacheWarmJob periodically refreshes the redis reference-data cache so
// classroom and roster reads stay warm between sessions.
func StartCacheWarmJob(ctx context.Context, cfg config.Config, directory warmer) {
	if !cfg.CacheWarmEnabled || cfg.RedisAddr == "" {
		return
	}
	interval := cfg.CacheWarmInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	timeout := cfg.CacheWarmTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				err := directory.Warm(tickCtx)
				cancel()
				if err != nil {
					log.Printf("cache warm job error: %v", err)
				}
			}
		}
	}()
}
