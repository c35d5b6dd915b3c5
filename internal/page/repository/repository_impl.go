package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/page/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, page *domain.Page) error {
	return db.WithContext(ctx).Create(page).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, page *domain.Page) error {
	if page == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Page{}).
		Where("id = ?", page.ID).
		Updates(map[string]any{
			"title":           page.Title,
			"slug":            page.Slug,
			"seo_title":       page.SeoTitle,
			"seo_description": page.SeoDescription,
			"published":       page.Published,
			"updated_at":      page.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.PageBlock{}, "page_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Page{}, "id = ?", id).Error
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Page, error) {
	var p domain.Page
	err := db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Page, error) {
	var p domain.Page
	err := db.WithContext(ctx).Where("slug = ?", slug).Take(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Page, error) {
	var items []domain.Page
	if err := db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) LoadBlocks(ctx context.Context, db *gorm.DB, pageID snowflake.ID) ([]domain.PageBlock, error) {
	var blocks []domain.PageBlock
	err := db.WithContext(ctx).
		Where("page_id = ?", pageID).
		Order("position ASC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *repo) ReplaceBlocks(ctx context.Context, db *gorm.DB, pageID snowflake.ID, blocks []domain.PageBlock) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.PageBlock{}, "page_id = ?", pageID).Error; err != nil {
			return err
		}
		if len(blocks) == 0 {
			return nil
		}
		return tx.Create(&blocks).Error
	})
}
