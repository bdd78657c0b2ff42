package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/models"
)

// pageViewSink is where accepted events land.
type pageViewSink interface {
	InsertPageView(ctx context.Context, ev *models.PageViewEvent) error
}

// lastPathStore remembers the last tracked path per session for the
// consecutive-path dedup.
type lastPathStore interface {
	LastPath(ctx context.Context, sessionID string) (string, error)
	SetLastPath(ctx context.Context, sessionID, path string) error
}

const trackTimeout = 5 * time.Second

// TrackingService records branded page views. The contract is dispatch and
// forget: Track returns immediately, the write happens on a detached
// goroutine with its own deadline, and every failure is swallowed. Tracking
// must never be visible to the user-facing flow.
type TrackingService struct {
	sink pageViewSink
	last lastPathStore
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(sink pageViewSink, last lastPathStore) *TrackingService {
	return &TrackingService{sink: sink, last: last}
}

// Track dispatches a page view for recording. Nothing is recorded unless the
// resolved context is white-label with an active subscription.
func (s *TrackingService) Track(rc *models.ResolvedContext, sessionID, pagePath, referrer, userAgent string) {
	if rc == nil || !rc.IsWhiteLabel || rc.Guide == nil || !rc.Guide.CanServeWhiteLabel() {
		return
	}
	if sessionID == "" || pagePath == "" {
		return
	}

	guideID := rc.Guide.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()
		if err := s.record(ctx, guideID, sessionID, pagePath, referrer, userAgent); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Str("path", pagePath).Msg("page view tracking failed")
		}
	}()
}

// record is the synchronous core of Track: dedup consecutive identical paths
// per session, then append the event.
func (s *TrackingService) record(ctx context.Context, guideID int, sessionID, pagePath, referrer, userAgent string) error {
	lastPath, err := s.last.LastPath(ctx, sessionID)
	if err != nil {
		// Dedup is best-effort; a broken cache should not lose the event.
		log.Debug().Err(err).Str("session_id", sessionID).Msg("last path lookup failed")
	} else if lastPath == pagePath {
		return nil
	}

	ev := &models.PageViewEvent{
		SessionID: sessionID,
		GuideID:   guideID,
		PagePath:  pagePath,
	}
	if referrer != "" {
		ev.Referrer = &referrer
	}
	if userAgent != "" {
		ev.UserAgent = &userAgent
	}

	if err := s.sink.InsertPageView(ctx, ev); err != nil {
		return err
	}

	if err := s.last.SetLastPath(ctx, sessionID, pagePath); err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("last path update failed")
	}
	return nil
}
