package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/promo/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, code *domain.PromoCode) error {
	return db.WithContext(ctx).Create(code).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, code *domain.PromoCode) error {
	if code == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.PromoCode{}).
		Where("id = ?", code.ID).
		Updates(map[string]any{
			"active":     code.Active,
			"max_uses":   code.MaxUses,
			"expires_at": code.ExpiresAt,
			"updated_at": code.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PromoCode, error) {
	var p domain.PromoCode
	err := db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.PromoCode, error) {
	var p domain.PromoCode
	err := db.WithContext(ctx).Where("code = ?", code).Take(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.PromoCode, error) {
	var items []domain.PromoCode
	if err := db.WithContext(ctx).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) IncrementUsage(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.PromoCode{}).
		Where("id = ?", id).
		Where("max_uses IS NULL OR uses < max_uses").
		UpdateColumn("uses", gorm.Expr("uses + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
