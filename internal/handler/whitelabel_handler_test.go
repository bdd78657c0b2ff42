package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/service"
)

type stubDirectory struct {
	guides map[string]*models.Guide
	err    error
}

func (s *stubDirectory) GetBySlug(ctx context.Context, slug string) (*models.Guide, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.guides[slug], nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []*models.PageViewEvent
}

func (r *recordingSink) InsertPageView(ctx context.Context, ev *models.PageViewEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recordingSink) first() *models.PageViewEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[0]
}

type memoryLastPath struct {
	mu    sync.Mutex
	paths map[string]string
}

func (m *memoryLastPath) LastPath(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paths[sessionID], nil
}

func (m *memoryLastPath) SetLastPath(ctx context.Context, sessionID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paths == nil {
		m.paths = map[string]string{}
	}
	m.paths[sessionID] = path
	return nil
}

func newLandingRouter(dir *stubDirectory, sink *recordingSink) *gin.Engine {
	gin.SetMode(gin.TestMode)
	resolver := service.NewResolverService(dir, "guides.meditabi.com", "guides.localhost:3000")
	tracking := service.NewTrackingService(sink, &memoryLastPath{})
	h := NewWhiteLabelHandler(nil, resolver, tracking)

	router := gin.New()
	router.GET("/g/:slug", h.LandingBySlug)
	return router
}

func TestLandingBySlugTracksFirstVisitWithoutCookie(t *testing.T) {
	g := &models.Guide{
		ID:                 7,
		Slug:               "tanaka",
		Name:               "Tanaka Travel",
		SubscriptionStatus: models.SubscriptionActive,
		Modules:            []string{"golf"},
	}
	dir := &stubDirectory{guides: map[string]*models.Guide{"tanaka": g}}
	sink := &recordingSink{}
	router := newLandingRouter(dir, sink)

	// First visit on the main domain: no attribution cookie, no header.
	req := httptest.NewRequest(http.MethodGet, "/g/tanaka?sid=sess-1", nil)
	req.Host = "meditabi.com"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/g/tanaka/golf", w.Header().Get("Location"))

	// The write happens on a detached goroutine.
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 10*time.Millisecond)
	ev := sink.first()
	assert.Equal(t, 7, ev.GuideID)
	assert.Equal(t, "sess-1", ev.SessionID)
	assert.Equal(t, "/g/tanaka", ev.PagePath)
}

func TestLandingBySlugUnknownGuideRecordsNothing(t *testing.T) {
	dir := &stubDirectory{guides: map[string]*models.Guide{}}
	sink := &recordingSink{}
	router := newLandingRouter(dir, sink)

	req := httptest.NewRequest(http.MethodGet, "/g/nobody?sid=sess-1", nil)
	req.Host = "meditabi.com"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, sink.count())
}

func TestLandingBySlugDirectoryFailureReturns500(t *testing.T) {
	dir := &stubDirectory{err: errors.New("connection refused")}
	sink := &recordingSink{}
	router := newLandingRouter(dir, sink)

	req := httptest.NewRequest(http.MethodGet, "/g/tanaka", nil)
	req.Host = "meditabi.com"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, sink.count())
}
