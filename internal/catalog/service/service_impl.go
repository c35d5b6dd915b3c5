package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/catalog/domain"
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
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Product, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "software"
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:              s.genID.Generate(),
		Code:            code,
		Name:            name,
		Description:     req.Description,
		Category:        category,
		UnitAmountCents: req.UnitAmountCents,
		Currency:        "EUR",
		Active:          active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Product, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Category != nil {
		item.Category = strings.TrimSpace(*req.Category)
	}
	if req.UnitAmountCents != nil {
		item.UnitAmountCents = *req.UnitAmountCents
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Archive(ctx context.Context, id string) (*domain.Product, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Active = false
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Product, error) {
	return s.repo.List(ctx, s.db, domain.ListRequest{
		Name:   strings.TrimSpace(req.Name),
		Active: req.Active,
	})
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.find(ctx, id)
}

func (s *Service) CreateBinary(ctx context.Context, req domain.CreateBinaryRequest) (*domain.ProductBinary, error) {
	product, err := s.find(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	version := strings.TrimSpace(req.Version)
	filePath := strings.TrimSpace(req.FilePath)
	if platform == "" || version == "" || filePath == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	b := &domain.ProductBinary{
		ID:        s.genID.Generate(),
		ProductID: product.ID,
		Platform:  platform,
		Version:   version,
		FilePath:  filePath,
		Checksum:  strings.TrimSpace(req.Checksum),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateBinary(ctx, s.db, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) ListBinaries(ctx context.Context, productID string) ([]domain.ProductBinary, error) {
	product, err := s.find(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBinaries(ctx, s.db, product.ID)
}

func (s *Service) ResolveActive(ctx context.Context, productID snowflake.ID, binaryID *snowflake.ID) (*domain.Product, *domain.ProductBinary, error) {
	product, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, domain.ErrNotFound
	}
	if !product.Active {
		return nil, nil, domain.ErrInactiveProduct
	}

	if binaryID == nil || *binaryID == 0 {
		return product, nil, nil
	}

	binary, err := s.repo.FindBinaryByID(ctx, s.db, *binaryID)
	if err != nil {
		return nil, nil, err
	}
	if binary == nil || binary.ProductID != product.ID {
		return nil, nil, domain.ErrBinaryNotFound
	}
	if !binary.Active {
		return nil, nil, domain.ErrInactiveBinary
	}
	return product, binary, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Product, error) {
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
