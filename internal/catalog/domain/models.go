package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Product struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	Code            string            `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name            string            `json:"name" gorm:"type:text;not null"`
	Description     *string           `json:"description,omitempty" gorm:"type:text"`
	Category        string            `json:"category" gorm:"type:text;not null;default:'software'"`
	UnitAmountCents int64             `json:"unit_amount_cents" gorm:"not null;default:0"`
	Currency        string            `json:"currency" gorm:"type:text;not null;default:'EUR'"`
	Active          bool              `json:"active" gorm:"not null;default:true"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

type ProductBinary struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	ProductID snowflake.ID `json:"product_id" gorm:"not null;index"`
	Platform  string       `json:"platform" gorm:"type:text;not null"`
	Version   string       `json:"version" gorm:"type:text;not null"`
	FilePath  string       `json:"file_path" gorm:"type:text;not null"`
	Checksum  string       `json:"checksum" gorm:"type:text;not null;default:''"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (ProductBinary) TableName() string { return "product_binaries" }

var (
	ErrNotFound        = errors.New("product_not_found")
	ErrBinaryNotFound  = errors.New("binary_not_found")
	ErrInactiveProduct = errors.New("inactive_product")
	ErrInactiveBinary  = errors.New("inactive_binary")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidID       = errors.New("invalid_id")
)
