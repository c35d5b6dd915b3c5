package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	if order == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":                   order.Status,
			"total_paid_cents":         order.TotalPaidCents,
			"stripe_session_id":        order.StripeSessionID,
			"stripe_payment_intent_id": order.StripePaymentIntentID,
			"stripe_event_id":          order.StripeEventID,
			"billing_name":             order.BillingName,
			"billing_email":            order.BillingEmail,
			"billing_address":          order.BillingAddress,
			"billing_city":             order.BillingCity,
			"billing_zip":              order.BillingZip,
			"billing_country":          order.BillingCountry,
			"order_number":             order.OrderNumber,
			"paid_at":                  order.PaidAt,
			"updated_at":               order.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, number string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Where("order_number = ?", number).
		Take(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *repo) FindByStripeSessionID(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, nil
	}
	var o domain.Order
	err := db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		Take(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Order, error) {
	stmt := db.WithContext(ctx).Model(&domain.Order{})

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		stmt = stmt.Where("user_id = ?", filter.UserID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}
	stmt = stmt.Order("created_at DESC")

	var items []domain.Order
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) NumberExists(ctx context.Context, db *gorm.DB, number string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) LoadItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CreateItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}
