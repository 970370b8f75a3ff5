package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"promptq/prompt_cache"
	"promptq/ratelimit"
)

func StartStatsLogger(ctx context.Context, limiter *ratelimit.RateLimiter, cache *prompt_cache.TTLCache) {
	ticker := time.NewTicker(time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Infof("STATS - Sheet calls in window: %d/%d, cache entries: %d",
					limiter.InWindow(), limiter.Budget(), cache.Len())
			}
		}
	}()
}
