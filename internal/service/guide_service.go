package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/cache"
	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/repository"
)

// GuideService is the guide directory: slug lookups with a redis read-through
// cache in front of the database. Cache trouble degrades to direct reads;
// database trouble surfaces as an error so callers can fail closed.
type GuideService struct {
	repo  *repository.GuideRepository
	cache *cache.GuideCache
}

// NewGuideService creates a new GuideService.
func NewGuideService(repo *repository.GuideRepository, guideCache *cache.GuideCache) *GuideService {
	return &GuideService{repo: repo, cache: guideCache}
}

// GetBySlug returns the guide for slug regardless of subscription status, or
// (nil, nil) when no such guide exists. Eligibility gating belongs to the
// resolver, not here.
func (s *GuideService) GetBySlug(ctx context.Context, slug string) (*models.Guide, error) {
	if s.cache != nil {
		if g, err := s.cache.Get(ctx, slug); err != nil {
			log.Debug().Err(err).Str("slug", slug).Msg("guide cache read failed, falling back to database")
		} else if g != nil {
			return g, nil
		}
	}

	g, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, g); err != nil {
			log.Debug().Err(err).Str("slug", slug).Msg("guide cache write failed")
		}
	}
	return g, nil
}

// GetByID returns the guide by numeric id, or (nil, nil) when absent.
func (s *GuideService) GetByID(ctx context.Context, id int) (*models.Guide, error) {
	return s.repo.GetByID(ctx, id)
}

// Invalidate drops the cached config for slug after an admin mutation.
func (s *GuideService) Invalidate(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, slug); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("guide cache invalidation failed")
	}
}
