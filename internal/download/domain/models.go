package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound    = errors.New("download_not_found")
	ErrExpired     = errors.New("download_expired")
	ErrExhausted   = errors.New("download_exhausted")
	ErrRevoked     = errors.New("download_revoked")
	ErrNoBinary    = errors.New("download_no_binary")
	ErrOrderUnpaid = errors.New("order_unpaid")
)

// DownloadLink grants timed access to one purchased binary. Token is the
// only thing exposed to the customer; ids never leave the backoffice.
type DownloadLink struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderID     snowflake.ID `json:"order_id" gorm:"not null;index"`
	OrderItemID snowflake.ID `json:"order_item_id" gorm:"not null;index"`
	ProductID   snowflake.ID `json:"product_id" gorm:"not null"`
	BinaryID    snowflake.ID `json:"binary_id" gorm:"not null"`
	Token       string       `json:"token" gorm:"type:text;not null;uniqueIndex"`
	ExpiresAt   time.Time    `json:"expires_at" gorm:"not null"`
	MaxCount    int          `json:"max_count" gorm:"not null"`
	Count       int          `json:"count" gorm:"not null;default:0"`
	Active      bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null"`
}

func (DownloadLink) TableName() string { return "download_links" }

// Delivery is what the HTTP layer needs to serve a file.
type Delivery struct {
	Link     *DownloadLink
	FilePath string
	FileName string
	Checksum string
}
