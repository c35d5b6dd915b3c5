package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/seo/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, entry *domain.SeoEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, entry *domain.SeoEntry) error {
	if entry == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.SeoEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"title":          entry.Title,
			"description":    entry.Description,
			"canonical_url":  entry.CanonicalURL,
			"og_image_url":   entry.OGImageURL,
			"geo_region":     entry.GeoRegion,
			"geo_placename":  entry.GeoPlacename,
			"robots_noindex": entry.RobotsNoIndex,
			"updated_at":     entry.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.SeoEntry{}, "id = ?", id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SeoEntry, error) {
	var entry domain.SeoEntry
	err := db.WithContext(ctx).Where("id = ?", id).Take(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) FindByRoute(ctx context.Context, db *gorm.DB, route string) (*domain.SeoEntry, error) {
	var entry domain.SeoEntry
	err := db.WithContext(ctx).Where("route = ?", route).Take(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.SeoEntry, error) {
	var items []domain.SeoEntry
	if err := db.WithContext(ctx).Order("route ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
