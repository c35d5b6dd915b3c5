package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/page/domain"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("page.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Page, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	pageSlug := slug.Make(strings.TrimSpace(req.Slug))
	if pageSlug == "" {
		pageSlug = slug.Make(title)
	}
	existing, err := s.repo.FindBySlug(ctx, s.db, pageSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSlugTaken
	}

	now := time.Now().UTC()
	p := &domain.Page{
		ID:             s.genID.Generate(),
		Title:          title,
		Slug:           pageSlug,
		SeoTitle:       strings.TrimSpace(req.SeoTitle),
		SeoDescription: strings.TrimSpace(req.SeoDescription),
		Published:      req.Published,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Page, error) {
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
	if req.SeoTitle != nil {
		item.SeoTitle = strings.TrimSpace(*req.SeoTitle)
	}
	if req.SeoDescription != nil {
		item.SeoDescription = strings.TrimSpace(*req.SeoDescription)
	}
	if req.Published != nil {
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

func (s *Service) Get(ctx context.Context, id string) (*domain.Page, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withBlocks(ctx, item)
}

func (s *Service) GetPublished(ctx context.Context, slugValue string) (*domain.Page, error) {
	item, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(slugValue))
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Published {
		return nil, domain.ErrNotFound
	}
	return s.withBlocks(ctx, item)
}

func (s *Service) List(ctx context.Context) ([]domain.Page, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) SetBlocks(ctx context.Context, pageID string, blocks []domain.BlockRequest) (*domain.Page, error) {
	item, err := s.find(ctx, pageID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rows := make([]domain.PageBlock, 0, len(blocks))
	for position, block := range blocks {
		blockType := domain.BlockType(strings.TrimSpace(block.Type))
		if !blockType.Valid() {
			return nil, domain.ErrInvalidBlockType
		}
		row := domain.PageBlock{
			ID:        s.genID.Generate(),
			PageID:    item.ID,
			Type:      blockType,
			Position:  position,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if block.Payload != nil {
			raw, err := json.Marshal(block.Payload)
			if err != nil {
				return nil, err
			}
			row.Payload = datatypes.JSON(raw)
		}
		rows = append(rows, row)
	}

	if err := s.repo.ReplaceBlocks(ctx, s.db, item.ID, rows); err != nil {
		return nil, err
	}
	item.Blocks = rows
	return item, nil
}

func (s *Service) withBlocks(ctx context.Context, item *domain.Page) (*domain.Page, error) {
	blocks, err := s.repo.LoadBlocks(ctx, s.db, item.ID)
	if err != nil {
		return nil, err
	}
	item.Blocks = blocks
	return item, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Page, error) {
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
