package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// guideDirectory is the slice of the guide service the resolver needs.
type guideDirectory interface {
	GetBySlug(ctx context.Context, slug string) (*models.Guide, error)
}

// ResolverService decides, for an incoming request, whether white-label mode
// applies and for which guide. The decision is pure apart from the directory
// lookup; cookie writes are the caller's job.
type ResolverService struct {
	guides     guideDirectory
	domain     string
	localAlias string
}

// NewResolverService creates a new ResolverService. domain is the designated
// white-label host; localAlias covers local development.
func NewResolverService(guides guideDirectory, domain, localAlias string) *ResolverService {
	return &ResolverService{guides: guides, domain: domain, localAlias: localAlias}
}

// Resolve applies the priority order: white-label host with a header slug
// wins, then a session cookie slug, then official mode. Any candidate slug is
// verified against the directory, and only a guide with an active
// subscription produces white-label mode. A directory failure resolves to
// official mode: never fail open into an unverified branded experience.
func (s *ResolverService) Resolve(ctx context.Context, host, cookieSlug, headerSlug string) *models.ResolvedContext {
	candidate := ""
	switch {
	case s.isWhiteLabelHost(host) && headerSlug != "":
		candidate = headerSlug
	case cookieSlug != "":
		candidate = cookieSlug
	}

	if candidate == "" || !utils.ValidSlug(candidate) {
		return models.OfficialContext()
	}

	g, err := s.guides.GetBySlug(ctx, candidate)
	if err != nil {
		// Backend failure, not a missing guide. Fail closed, but mark the
		// context degraded so attribution state survives the blip.
		log.Warn().Err(err).Str("slug", candidate).Msg("guide lookup failed during resolution, serving official mode")
		return &models.ResolvedContext{Degraded: true}
	}
	if g == nil {
		log.Debug().Str("slug", candidate).Msg("unknown guide slug, serving official mode")
		return models.OfficialContext()
	}
	if !g.CanServeWhiteLabel() {
		log.Debug().Str("slug", candidate).Str("status", string(g.SubscriptionStatus)).Msg("guide subscription not active, serving official mode")
		return models.OfficialContext()
	}

	return &models.ResolvedContext{IsWhiteLabel: true, Slug: g.Slug, Guide: g}
}

// isWhiteLabelHost reports whether host (possibly with a port) is the
// designated white-label domain, a subdomain of it, or the local alias.
func (s *ResolverService) isWhiteLabelHost(host string) bool {
	if host == "" {
		return false
	}
	if host == s.localAlias {
		return true
	}
	h := host
	if i := strings.LastIndex(h, ":"); i >= 0 {
		h = h[:i]
	}
	return h == s.domain || strings.HasSuffix(h, "."+s.domain)
}

// ResolveEntry produces the landing redirect target for /g/{slug} along with
// the verified guide: the first module in the guide's configured order with a
// dedicated detail page. The guide is returned so callers can act on the
// resolution (tracking, cookies) even when the request itself carried no
// attribution yet. A missing or inactive guide, or a catalog with no
// detail-page module, yields ErrGuideNotFound; no branded content is ever
// served for an inactive guide.
func (s *ResolverService) ResolveEntry(ctx context.Context, slug string) (string, *models.Guide, error) {
	if !utils.ValidSlug(slug) {
		return "", nil, utils.ErrGuideNotFound
	}

	g, err := s.guides.GetBySlug(ctx, slug)
	if err != nil {
		return "", nil, err
	}
	if g == nil || !g.CanServeWhiteLabel() {
		return "", nil, utils.ErrGuideNotFound
	}

	path, ok := models.FirstDetailPath(g.Modules)
	if !ok {
		log.Debug().Str("slug", slug).Msg("guide has no module with a detail page")
		return "", nil, utils.ErrGuideNotFound
	}
	return "/g/" + g.Slug + "/" + path, g, nil
}
