package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Product, error)

	CreateBinary(ctx context.Context, db *gorm.DB, binary *ProductBinary) error
	FindBinaryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ProductBinary, error)
	ListBinaries(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]ProductBinary, error)
}
