// Package cleanup provides the background worker that evicts expired cache entries
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Purger is a cache that can drop its expired entries.
type Purger interface {
	PurgeExpired() int
}

// Worker handles background cache cleanup operations
type Worker struct {
	caches map[string]Purger
	config *Config
	logger *slog.Logger
}

// NewWorker creates a new cleanup worker over the named caches.
func NewWorker(caches map[string]Purger, config *Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		caches: caches,
		config: config,
		logger: logger,
	}
}

// Start runs cleanup every configured interval until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	interval := w.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("Cache cleanup worker started", "interval", interval, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce purges every cache and returns the total number of dropped entries.
func (w *Worker) RunOnce() int {
	start := time.Now()
	var total int
	for name, cache := range w.caches {
		cleaned := cache.PurgeExpired()
		if cleaned > 0 || w.config.VerboseReporting {
			w.logger.Debug("Cache purged", "cache", name, "items", cleaned)
		}
		total += cleaned
	}
	if total > 0 {
		w.logger.Info("Cache cleanup finished", "items", total, "caches", len(w.caches), "duration", time.Since(start))
	}
	return total
}
