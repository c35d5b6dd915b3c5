package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":              product.Name,
			"description":       product.Description,
			"category":          product.Category,
			"unit_amount_cents": product.UnitAmountCents,
			"active":            product.Active,
			"metadata":          product.Metadata,
			"updated_at":        product.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Product, error) {
	stmt := db.WithContext(ctx).Model(&domain.Product{})
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	var items []domain.Product
	if err := stmt.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CreateBinary(ctx context.Context, db *gorm.DB, binary *domain.ProductBinary) error {
	return db.WithContext(ctx).Create(binary).Error
}

func (r *repo) FindBinaryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ProductBinary, error) {
	var b domain.ProductBinary
	err := db.WithContext(ctx).Where("id = ?", id).Take(&b).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *repo) ListBinaries(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]domain.ProductBinary, error) {
	var items []domain.ProductBinary
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
