package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

type fakeTierProvider struct {
	tiers   []models.CommissionTier
	summary *models.TierSummary
	err     error
}

func (f *fakeTierProvider) ActiveTiers(ctx context.Context) ([]models.CommissionTier, *models.TierSummary, error) {
	return f.tiers, f.summary, f.err
}

func tierRouter(p *fakeTierProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/commission-tiers", NewCommissionHandler(p).GetTiers)
	return router
}

func TestGetTiers(t *testing.T) {
	provider := &fakeTierProvider{
		tiers: []models.CommissionTier{
			{ID: 1, Name: "Standard", Rate: 10, MinOrderAmount: 0, SortOrder: 0},
			{ID: 2, Name: "Silver", Rate: 15, MinOrderAmount: 500000, SortOrder: 1},
			{ID: 3, Name: "Gold", Rate: 20, MinOrderAmount: 2000000, SortOrder: 2},
		},
		summary: &models.TierSummary{MinRate: 10, MaxRate: 20, TierCount: 3},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/commission-tiers", nil)
	w := httptest.NewRecorder()
	tierRouter(provider).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Tiers   []models.CommissionTier `json:"tiers"`
			Summary models.TierSummary      `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data.Tiers, 3)
	assert.Equal(t, 10.0, resp.Data.Summary.MinRate)
	assert.Equal(t, 20.0, resp.Data.Summary.MaxRate)
	assert.Equal(t, 3, resp.Data.Summary.TierCount)
}

func TestGetTiersBackendFailure(t *testing.T) {
	provider := &fakeTierProvider{err: errors.New("connection refused")}

	req := httptest.NewRequest(http.MethodGet, "/api/commission-tiers", nil)
	w := httptest.NewRecorder()
	tierRouter(provider).ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}

func TestGetTiersMisconfiguredTable(t *testing.T) {
	provider := &fakeTierProvider{err: utils.ErrNoTiersConfigured}

	req := httptest.NewRequest(http.MethodGet, "/api/commission-tiers", nil)
	w := httptest.NewRecorder()
	tierRouter(provider).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
