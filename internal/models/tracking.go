package models

import "time"

// PageViewEvent is an append-only record of a branded page view. Events are
// never mutated or deleted by the application.
type PageViewEvent struct {
	ID        int64     `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"sessionId"`
	GuideID   int       `db:"guide_id" json:"guideId"`
	PagePath  string    `db:"page_path" json:"pagePath"`
	Referrer  *string   `db:"referrer" json:"referrer,omitempty"`
	UserAgent *string   `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// GuidePageViewDaily is one row of the per-guide daily rollup.
type GuidePageViewDaily struct {
	GuideID int       `db:"guide_id" json:"guideId"`
	Day     time.Time `db:"day" json:"day"`
	Views   int       `db:"views" json:"views"`
}
