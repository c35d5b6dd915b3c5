package repository

import (
	"context"

	"github.com/comptaline/backoffice/internal/newsletter/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, sub *domain.Subscriber) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, sub *domain.Subscriber) error {
	if sub == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Subscriber{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{
			"source":          sub.Source,
			"subscribed_at":   sub.SubscribedAt,
			"unsubscribed_at": sub.UnsubscribedAt,
			"updated_at":      sub.UpdatedAt,
		}).Error
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	err := db.WithContext(ctx).Where("email = ?", email).Take(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Subscriber, error) {
	query := db.WithContext(ctx).Model(&domain.Subscriber{})
	if filter.ActiveOnly {
		query = query.Where("unsubscribed_at IS NULL")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []domain.Subscriber
	if err := query.Order("subscribed_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
