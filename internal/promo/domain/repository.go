package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, code *PromoCode) error
	Update(ctx context.Context, db *gorm.DB, code *PromoCode) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PromoCode, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*PromoCode, error)
	List(ctx context.Context, db *gorm.DB) ([]PromoCode, error)

	// IncrementUsage bumps uses by one, refusing to pass max_uses. The
	// returned bool reports whether a row was actually updated.
	IncrementUsage(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
