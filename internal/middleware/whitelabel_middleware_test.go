package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/service"
)

type stubGuideDirectory struct {
	guides map[string]*models.Guide
	err    error
}

func (s *stubGuideDirectory) GetBySlug(ctx context.Context, slug string) (*models.Guide, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.guides[slug], nil
}

func newWhiteLabelRouter(dir *stubGuideDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	resolver := service.NewResolverService(dir, "guides.meditabi.com", "guides.localhost:3000")
	mw := NewWhiteLabelMiddleware(resolver)

	router := gin.New()
	router.Use(mw.Handle())
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, ResolvedFrom(c))
	})
	return router
}

func guideCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == models.GuideSlugCookie {
			return ck
		}
	}
	return nil
}

func TestWhiteLabelMiddlewareClearsStaleCookie(t *testing.T) {
	dir := &stubGuideDirectory{guides: map[string]*models.Guide{}}
	router := newWhiteLabelRouter(dir)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: models.GuideSlugCookie, Value: "tanaka"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	ck := guideCookie(w)
	require.NotNil(t, ck)
	assert.Empty(t, ck.Value)
	assert.Negative(t, ck.MaxAge)
}

func TestWhiteLabelMiddlewareKeepsCookieOnDirectoryFailure(t *testing.T) {
	dir := &stubGuideDirectory{err: errors.New("connection refused")}
	router := newWhiteLabelRouter(dir)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: models.GuideSlugCookie, Value: "tanaka"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Official mode is served, but the attribution cookie survives the
	// backend failure untouched.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, guideCookie(w))
}

func TestWhiteLabelMiddlewareSetsCookieFromHeader(t *testing.T) {
	g := &models.Guide{
		ID:                 3,
		Slug:               "tanaka",
		Name:               "Tanaka Travel",
		SubscriptionStatus: models.SubscriptionActive,
		Modules:            []string{"golf"},
	}
	dir := &stubGuideDirectory{guides: map[string]*models.Guide{"tanaka": g}}
	router := newWhiteLabelRouter(dir)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "guides.meditabi.com"
	req.Header.Set(models.GuideSlugHeader, "tanaka")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	ck := guideCookie(w)
	require.NotNil(t, ck)
	assert.Equal(t, "tanaka", ck.Value)
	assert.Positive(t, ck.MaxAge)
}
