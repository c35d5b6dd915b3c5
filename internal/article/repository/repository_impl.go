package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/article/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, article *domain.Article) error {
	return db.WithContext(ctx).Create(article).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, article *domain.Article) error {
	if article == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("id = ?", article.ID).
		Updates(map[string]any{
			"title":           article.Title,
			"slug":            article.Slug,
			"excerpt":         article.Excerpt,
			"body":            article.Body,
			"cover_image_url": article.CoverImageURL,
			"seo_title":       article.SeoTitle,
			"seo_description": article.SeoDescription,
			"published":       article.Published,
			"published_at":    article.PublishedAt,
			"updated_at":      article.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.Article{}, "id = ?", id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Article, error) {
	var a domain.Article
	err := db.WithContext(ctx).Where("id = ?", id).Take(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Article, error) {
	var a domain.Article
	err := db.WithContext(ctx).Where("slug = ?", slug).Take(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Article, error) {
	stmt := db.WithContext(ctx).Model(&domain.Article{})
	if filter.PublishedOnly {
		stmt = stmt.Where("published = ?", true)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}
	var items []domain.Article
	if err := stmt.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
