package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/repository"
)

// rollupWindow covers late-arriving events from the previous day.
const rollupWindow = 48 * time.Hour

// PageViewRollupWorker aggregates raw page view events into the per-guide
// daily rollup on a fixed interval.
type PageViewRollupWorker struct {
	trackingRepo *repository.TrackingRepository
	interval     time.Duration
}

// NewPageViewRollupWorker constructs a PageViewRollupWorker.
func NewPageViewRollupWorker(trackingRepo *repository.TrackingRepository, interval time.Duration) *PageViewRollupWorker {
	return &PageViewRollupWorker{
		trackingRepo: trackingRepo,
		interval:     interval,
	}
}

// Start begins the rollup loop and listens for context cancellation.
func (w *PageViewRollupWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting page view rollup worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Page view rollup worker stopped")
			return
		}
	}
}

func (w *PageViewRollupWorker) run(ctx context.Context) {
	if err := w.trackingRepo.RollupDaily(ctx, windowStart(time.Now())); err != nil {
		log.Error().Err(err).Msg("Failed to roll up page views")
	}
}

// windowStart widens the rollup lower bound back to the start of its day.
// The oldest day the window reaches into must be recounted in full, never
// from a mid-day cutoff.
func windowStart(now time.Time) time.Time {
	since := now.Add(-rollupWindow)
	return time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, since.Location())
}
