package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	if invoice == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"pdf_path": invoice.PDFPath,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).Where("id = ?", id).Take(&inv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).Where("order_id = ?", orderID).Take(&inv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, limit int) ([]domain.Invoice, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var items []domain.Invoice
	err := db.WithContext(ctx).
		Order("issued_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) NextSequence(ctx context.Context, db *gorm.DB, year int) (int, error) {
	prefix := "FAC-" + strconv.Itoa(year) + "-"
	var last string
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		Limit(1).
		Pluck("number", &last).Error
	if err != nil {
		return 0, err
	}
	if last == "" {
		return 1, nil
	}
	sequence, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
	if err != nil {
		return 0, err
	}
	return sequence + 1, nil
}
