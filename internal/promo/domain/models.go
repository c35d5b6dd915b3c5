package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound      = errors.New("promo_not_found")
	ErrInactive      = errors.New("promo_inactive")
	ErrExpired       = errors.New("promo_expired")
	ErrExhausted     = errors.New("promo_exhausted")
	ErrWrongCategory = errors.New("promo_wrong_category")
	ErrInvalidCode   = errors.New("invalid_code")
	ErrInvalidID     = errors.New("invalid_id")
	ErrBadDiscount   = errors.New("invalid_discount")
)

// PromoCode carries either a percent discount or a fixed amount, never
// both. Category restricts the code to carts whose every line belongs
// to that catalog category; empty means no restriction.
type PromoCode struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id,string"`
	Code           string       `gorm:"size:64;uniqueIndex" json:"code"`
	PercentOff     *int         `json:"percent_off,omitempty"`
	AmountOffCents *int64       `json:"amount_off_cents,omitempty"`
	Category       string       `gorm:"size:64" json:"category,omitempty"`
	MaxUses        *int         `json:"max_uses,omitempty"`
	Uses           int          `json:"uses"`
	Active         bool         `json:"active"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (PromoCode) TableName() string {
	return "promo_codes"
}

// DiscountFor computes the discount against a cart subtotal, clamped so
// the payable amount never goes negative.
func (p *PromoCode) DiscountFor(subtotalCents int64) int64 {
	var discount int64
	switch {
	case p.PercentOff != nil:
		discount = subtotalCents * int64(*p.PercentOff) / 100
	case p.AmountOffCents != nil:
		discount = *p.AmountOffCents
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
