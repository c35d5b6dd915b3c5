package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/download/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, link *domain.DownloadLink) error {
	return db.WithContext(ctx).Create(link).Error
}

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.DownloadLink, error) {
	var link domain.DownloadLink
	err := db.WithContext(ctx).Where("token = ?", token).Take(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *repo) FindActiveByOrderItem(ctx context.Context, db *gorm.DB, orderItemID snowflake.ID) (*domain.DownloadLink, error) {
	var link domain.DownloadLink
	err := db.WithContext(ctx).
		Where("order_item_id = ? AND active = ?", orderItemID, true).
		Order("created_at DESC").
		Take(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *repo) ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.DownloadLink, error) {
	var links []domain.DownloadLink
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repo) IncrementCount(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.DownloadLink{}).
		Where("id = ? AND active = ? AND count < max_count", id, true).
		Updates(map[string]any{
			"count":      gorm.Expr("count + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Revoke(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.DownloadLink{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"active":     false,
			"updated_at": time.Now().UTC(),
		}).Error
}
