package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*PromoCode, error)
	Update(ctx context.Context, req UpdateRequest) (*PromoCode, error)
	List(ctx context.Context) ([]PromoCode, error)
	Get(ctx context.Context, id string) (*PromoCode, error)

	// Validate checks the code against expiry, usage cap, active flag and
	// the cart's categories, and returns the discount in cents.
	Validate(ctx context.Context, code string, categories []string, subtotalCents int64) (*PromoCode, int64, error)

	// RecordUse is called once per paid order that redeemed the code.
	RecordUse(ctx context.Context, code string) error
	RecordUseByID(ctx context.Context, id snowflake.ID) error
}

type CreateRequest struct {
	Code           string `json:"code"`
	PercentOff     *int   `json:"percent_off"`
	AmountOffCents *int64 `json:"amount_off_cents"`
	Category       string `json:"category"`
	MaxUses        *int   `json:"max_uses"`
	ExpiresAt      string `json:"expires_at"`
}

type UpdateRequest struct {
	ID        string  `json:"-"`
	Active    *bool   `json:"active"`
	MaxUses   *int    `json:"max_uses"`
	ExpiresAt *string `json:"expires_at"`
}
