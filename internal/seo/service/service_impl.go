package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/seo/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cacheTTL = 5 * time.Minute

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	cache *resolvedCache
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("seo.service"),
		genID: p.GenID,
		repo:  p.Repo,
		cache: newResolvedCache(cacheTTL),
	}
}

func (s *Service) Resolve(ctx context.Context, route string) (*domain.Resolved, error) {
	route = normalizeRoute(route)
	if route == "" {
		return nil, domain.ErrInvalidRoute
	}

	if cached, ok := s.cache.Get(route); ok {
		return cached, nil
	}

	defaults, err := s.repo.FindByRoute(ctx, s.db, domain.DefaultsRoute)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.FindByRoute(ctx, s.db, route)
	if err != nil {
		return nil, err
	}

	resolved := merge(route, defaults, entry)
	s.cache.Set(route, *resolved)
	return resolved, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.SeoEntry, error) {
	route := normalizeRoute(req.Route)
	if route == "" && strings.TrimSpace(req.Route) != domain.DefaultsRoute {
		return nil, domain.ErrInvalidRoute
	}
	if strings.TrimSpace(req.Route) == domain.DefaultsRoute {
		route = domain.DefaultsRoute
	}

	now := time.Now().UTC()
	existing, err := s.repo.FindByRoute(ctx, s.db, route)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		entry := &domain.SeoEntry{
			ID:            s.genID.Generate(),
			Route:         route,
			Title:         strings.TrimSpace(req.Title),
			Description:   strings.TrimSpace(req.Description),
			CanonicalURL:  strings.TrimSpace(req.CanonicalURL),
			OGImageURL:    strings.TrimSpace(req.OGImageURL),
			GeoRegion:     strings.TrimSpace(req.GeoRegion),
			GeoPlacename:  strings.TrimSpace(req.GeoPlacename),
			RobotsNoIndex: req.RobotsNoIndex,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Create(ctx, s.db, entry); err != nil {
			return nil, err
		}
		s.cache.Flush()
		return entry, nil
	}

	existing.Title = strings.TrimSpace(req.Title)
	existing.Description = strings.TrimSpace(req.Description)
	existing.CanonicalURL = strings.TrimSpace(req.CanonicalURL)
	existing.OGImageURL = strings.TrimSpace(req.OGImageURL)
	existing.GeoRegion = strings.TrimSpace(req.GeoRegion)
	existing.GeoPlacename = strings.TrimSpace(req.GeoPlacename)
	existing.RobotsNoIndex = req.RobotsNoIndex
	existing.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return nil, err
	}
	s.cache.Flush()
	return existing, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}
	entry, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return err
	}
	if entry == nil {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, s.db, entry.ID); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.SeoEntry, error) {
	return s.repo.List(ctx, s.db)
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" || route == domain.DefaultsRoute {
		return ""
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	return strings.ToLower(route)
}

func merge(route string, defaults, entry *domain.SeoEntry) *domain.Resolved {
	resolved := &domain.Resolved{Route: route}
	apply := func(e *domain.SeoEntry) {
		if e == nil {
			return
		}
		if e.Title != "" {
			resolved.Title = e.Title
		}
		if e.Description != "" {
			resolved.Description = e.Description
		}
		if e.CanonicalURL != "" {
			resolved.CanonicalURL = e.CanonicalURL
		}
		if e.OGImageURL != "" {
			resolved.OGImageURL = e.OGImageURL
		}
		if e.GeoRegion != "" {
			resolved.GeoRegion = e.GeoRegion
		}
		if e.GeoPlacename != "" {
			resolved.GeoPlacename = e.GeoPlacename
		}
		resolved.RobotsNoIndex = resolved.RobotsNoIndex || e.RobotsNoIndex
	}
	apply(defaults)
	apply(entry)
	return resolved
}
