package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Watcher re-syncs the catalog on a fixed interval so the planner picks up
// new uploads without manual intervention.
type Watcher struct {
	service  *Service
	interval time.Duration
}

func NewWatcher(service *Service, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Watcher{service: service, interval: interval}
}

// Run blocks until ctx is cancelled, syncing once immediately and then on
// every tick. Sync failures are logged and retried on the next tick.
func (w *Watcher) Run(ctx context.Context) {
	if _, err := w.service.Sync(ctx); err != nil {
		log.Error().Err(err).Msg("initial catalog sync failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			paths, err := w.service.Sync(ctx)
			if err != nil {
				log.Error().Err(err).Msg("catalog sync failed")
				continue
			}
			log.Info().Int("files", len(paths)).Msg("catalog synced")
		}
	}
}
