package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound    = errors.New("invoice_not_found")
	ErrOrderUnpaid = errors.New("order_unpaid")
)

// Invoice is the one-to-one fiscal record of a paid order. Numbers follow
// FAC-YYYY-NNNNN and are sequential within the year, no gaps on the happy
// path.
type Invoice struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderID     snowflake.ID `json:"order_id" gorm:"not null;uniqueIndex"`
	Number      string       `json:"number" gorm:"type:text;not null;uniqueIndex"`
	AmountCents int64        `json:"amount_cents" gorm:"not null"`
	Currency    string       `json:"currency" gorm:"type:text;not null;default:'EUR'"`
	PDFPath     string       `json:"pdf_path" gorm:"type:text;not null;default:''"`
	IssuedAt    time.Time    `json:"issued_at" gorm:"not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
}

func (Invoice) TableName() string { return "invoices" }

// FormatNumber renders the sequential invoice number for a year.
func FormatNumber(year, sequence int) string {
	return fmt.Sprintf("FAC-%04d-%05d", year, sequence)
}
