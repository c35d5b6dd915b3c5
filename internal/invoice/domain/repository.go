package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, limit int) ([]Invoice, error)
	// NextSequence returns 1 + the highest sequence already issued for the
	// year. Callers run it inside the same transaction as Create.
	NextSequence(ctx context.Context, db *gorm.DB, year int) (int, error)
}
