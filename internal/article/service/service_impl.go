package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/article/domain"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("article.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Article, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	articleSlug := slug.Make(strings.TrimSpace(req.Slug))
	if articleSlug == "" {
		articleSlug = slug.Make(title)
	}
	existing, err := s.repo.FindBySlug(ctx, s.db, articleSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSlugTaken
	}

	now := time.Now().UTC()
	a := &domain.Article{
		ID:             s.genID.Generate(),
		Title:          title,
		Slug:           articleSlug,
		Excerpt:        strings.TrimSpace(req.Excerpt),
		Body:           req.Body,
		CoverImageURL:  strings.TrimSpace(req.CoverImageURL),
		SeoTitle:       strings.TrimSpace(req.SeoTitle),
		SeoDescription: strings.TrimSpace(req.SeoDescription),
		Published:      req.Published,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if a.Published {
		a.PublishedAt = &now
	}
	if err := s.repo.Create(ctx, s.db, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Article, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		item.Title = title
	}
	if req.Slug != nil {
		newSlug := slug.Make(strings.TrimSpace(*req.Slug))
		if newSlug != "" && newSlug != item.Slug {
			existing, err := s.repo.FindBySlug(ctx, s.db, newSlug)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != item.ID {
				return nil, domain.ErrSlugTaken
			}
			item.Slug = newSlug
		}
	}
	if req.Excerpt != nil {
		item.Excerpt = strings.TrimSpace(*req.Excerpt)
	}
	if req.Body != nil {
		item.Body = *req.Body
	}
	if req.CoverImageURL != nil {
		item.CoverImageURL = strings.TrimSpace(*req.CoverImageURL)
	}
	if req.SeoTitle != nil {
		item.SeoTitle = strings.TrimSpace(*req.SeoTitle)
	}
	if req.SeoDescription != nil {
		item.SeoDescription = strings.TrimSpace(*req.SeoDescription)
	}
	if req.Published != nil {
		if *req.Published && !item.Published {
			now := time.Now().UTC()
			item.PublishedAt = &now
		}
		item.Published = *req.Published
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, item.ID)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Article, error) {
	return s.find(ctx, id)
}

func (s *Service) GetPublished(ctx context.Context, slugValue string) (*domain.Article, error) {
	item, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(slugValue))
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Published {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Article, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) find(ctx context.Context, id string) (*domain.Article, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}
