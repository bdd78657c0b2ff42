package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/meditabi/meditabi_api/internal/models"
)

// TrackingRepository provides append-only access to page view events and the
// daily rollup table.
type TrackingRepository struct {
	db *sqlx.DB
}

// NewTrackingRepository creates a new TrackingRepository.
func NewTrackingRepository(db *sqlx.DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

// InsertPageView appends a page view event. Events are never updated or
// deleted by the application; retention is an external concern.
func (r *TrackingRepository) InsertPageView(ctx context.Context, ev *models.PageViewEvent) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO page_view_events (session_id, guide_id, page_path, referrer, user_agent)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, created_at`,
		ev.SessionID,
		ev.GuideID,
		ev.PagePath,
		ev.Referrer,
		ev.UserAgent,
	).Scan(&ev.ID, &ev.CreatedAt)
}

// RollupDaily upserts per-guide daily view counts for events since the given
// time. The lower bound is widened to the start of its day so every day the
// upsert touches is counted in full; a rerun never overwrites a complete
// count with a partial one.
func (r *TrackingRepository) RollupDaily(ctx context.Context, since time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO guide_page_view_daily (guide_id, day, views)
         SELECT guide_id, created_at::date AS day, COUNT(*)
         FROM page_view_events
         WHERE created_at >= date_trunc('day', $1::timestamptz)
         GROUP BY guide_id, created_at::date
         ON CONFLICT (guide_id, day) DO UPDATE SET views = EXCLUDED.views`,
		since)
	return err
}

// DailyViews returns the rollup rows for a guide over the last `days` days.
func (r *TrackingRepository) DailyViews(ctx context.Context, guideID, days int) ([]models.GuidePageViewDaily, error) {
	var rows []models.GuidePageViewDaily
	err := r.db.SelectContext(ctx, &rows,
		`SELECT guide_id, day, views
         FROM guide_page_view_daily
         WHERE guide_id = $1 AND day >= (CURRENT_DATE - $2::int)
         ORDER BY day ASC`,
		guideID, days)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
