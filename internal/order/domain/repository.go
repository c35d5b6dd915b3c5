package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, order *Order) error
	Update(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByNumber(ctx context.Context, db *gorm.DB, number string) (*Order, error)
	FindByStripeSessionID(ctx context.Context, db *gorm.DB, sessionID string) (*Order, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Order, error)
	NumberExists(ctx context.Context, db *gorm.DB, number string) (bool, error)
	LoadItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
	CreateItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
}

type ListFilter struct {
	Status  Status
	UserID  snowflake.ID
	Limit   int
	Offset  int
	SortBy  string
	OrderBy string
}
