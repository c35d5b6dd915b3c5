package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, link *DownloadLink) error
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*DownloadLink, error)
	FindActiveByOrderItem(ctx context.Context, db *gorm.DB, orderItemID snowflake.ID) (*DownloadLink, error)
	ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]DownloadLink, error)
	// IncrementCount bumps the counter without passing max_count; the bool
	// reports whether a download slot was actually claimed.
	IncrementCount(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	Revoke(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
