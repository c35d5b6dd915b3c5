package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/promo/domain"
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
	now   func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("promo.service"),
		genID: p.GenID,
		repo:  p.Repo,
		now:   time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.PromoCode, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	if (req.PercentOff == nil) == (req.AmountOffCents == nil) {
		return nil, domain.ErrBadDiscount
	}
	if req.PercentOff != nil && (*req.PercentOff <= 0 || *req.PercentOff > 100) {
		return nil, domain.ErrBadDiscount
	}
	if req.AmountOffCents != nil && *req.AmountOffCents <= 0 {
		return nil, domain.ErrBadDiscount
	}

	var expiresAt *time.Time
	if strings.TrimSpace(req.ExpiresAt) != "" {
		ts, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, domain.ErrInvalidCode
		}
		expiresAt = &ts
	}

	now := s.now().UTC()
	p := &domain.PromoCode{
		ID:             s.genID.Generate(),
		Code:           code,
		PercentOff:     req.PercentOff,
		AmountOffCents: req.AmountOffCents,
		Category:       strings.TrimSpace(req.Category),
		MaxUses:        req.MaxUses,
		Active:         true,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.PromoCode, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.MaxUses != nil {
		item.MaxUses = req.MaxUses
	}
	if req.ExpiresAt != nil {
		if strings.TrimSpace(*req.ExpiresAt) == "" {
			item.ExpiresAt = nil
		} else {
			ts, err := time.Parse(time.RFC3339, *req.ExpiresAt)
			if err != nil {
				return nil, domain.ErrInvalidCode
			}
			item.ExpiresAt = &ts
		}
	}

	item.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) List(ctx context.Context) ([]domain.PromoCode, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.PromoCode, error) {
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

func (s *Service) Validate(ctx context.Context, code string, categories []string, subtotalCents int64) (*domain.PromoCode, int64, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, 0, domain.ErrInvalidCode
	}

	item, err := s.repo.FindByCode(ctx, s.db, normalized)
	if err != nil {
		return nil, 0, err
	}
	if item == nil {
		return nil, 0, domain.ErrNotFound
	}
	if !item.Active {
		return nil, 0, domain.ErrInactive
	}
	if item.ExpiresAt != nil && s.now().After(*item.ExpiresAt) {
		return nil, 0, domain.ErrExpired
	}
	if item.MaxUses != nil && item.Uses >= *item.MaxUses {
		return nil, 0, domain.ErrExhausted
	}
	if item.Category != "" {
		for _, cat := range categories {
			if cat != item.Category {
				return nil, 0, domain.ErrWrongCategory
			}
		}
	}

	return item, item.DiscountFor(subtotalCents), nil
}

func (s *Service) RecordUseByID(ctx context.Context, id snowflake.ID) error {
	updated, err := s.repo.IncrementUsage(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !updated {
		s.log.Warn("promo usage cap reached at redemption", zap.String("promo_id", id.String()))
	}
	return nil
}

func (s *Service) RecordUse(ctx context.Context, code string) error {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	item, err := s.repo.FindByCode(ctx, s.db, normalized)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	updated, err := s.repo.IncrementUsage(ctx, s.db, item.ID)
	if err != nil {
		return err
	}
	if !updated {
		// Cap was reached between validation and redemption. The order
		// already went through, so log and move on.
		s.log.Warn("promo usage cap reached at redemption", zap.String("code", normalized))
	}
	return nil
}
