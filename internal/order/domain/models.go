package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Type string

const (
	TypeProduct      Type = "product"
	TypeSubscription Type = "subscription"
)

type Brand string

const (
	BrandComptaPro   Brand = "comptapro"
	BrandComptAssist Brand = "comptassist"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrNotFound          = errors.New("order_not_found")
	ErrIllegalTransition = errors.New("illegal_order_transition")
	ErrInvalidType       = errors.New("invalid_order_type")
	ErrBrandRequired     = errors.New("brand_required")
	ErrNumberExhausted   = errors.New("unable to generate unique order number")
)

// Transition reports whether moving from current to next changes the order.
// PAID is terminal: PAID -> PAID is an idempotent no-op, every other move
// away from PAID is rejected.
func Transition(current, next Status) (bool, error) {
	if current == next {
		return false, nil
	}
	switch current {
	case StatusPending:
		switch next {
		case StatusPaid, StatusFailed, StatusCancelled:
			return true, nil
		}
	case StatusPaid, StatusFailed, StatusCancelled:
		return false, ErrIllegalTransition
	}
	return false, ErrIllegalTransition
}

type Order struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID      snowflake.ID `json:"user_id" gorm:"not null;index"`
	OrderNumber string       `json:"order_number" gorm:"type:text;not null;uniqueIndex"`
	OrderType   Type         `json:"order_type" gorm:"type:text;not null"`
	Brand       string       `json:"brand" gorm:"type:text;not null;default:''"`
	Status      Status       `json:"status" gorm:"type:text;not null"`
	Currency    string       `json:"currency" gorm:"type:text;not null;default:'EUR'"`

	TotalCents     int64         `json:"total_cents" gorm:"not null;default:0"`
	DiscountCents  int64         `json:"discount_cents" gorm:"not null;default:0"`
	TotalPaidCents int64         `json:"total_paid_cents" gorm:"not null;default:0"`
	PromoCodeID    *snowflake.ID `json:"promo_code_id,omitempty"`

	StripeSessionID       string `json:"stripe_session_id" gorm:"type:text;not null;default:'';index"`
	StripePaymentIntentID string `json:"stripe_payment_intent_id" gorm:"type:text;not null;default:''"`
	StripeEventID         string `json:"stripe_event_id" gorm:"type:text;not null;default:''"`

	DownloadToken string `json:"download_token" gorm:"type:text;not null;default:''"`

	BillingName      string `json:"billing_name" gorm:"type:text;not null;default:''"`
	BillingEmail     string `json:"billing_email" gorm:"type:text;not null;default:''"`
	BillingAddress   string `json:"billing_address" gorm:"type:text;not null;default:''"`
	BillingCity      string `json:"billing_city" gorm:"type:text;not null;default:''"`
	BillingZip       string `json:"billing_zip" gorm:"type:text;not null;default:''"`
	BillingCountry   string `json:"billing_country" gorm:"type:text;not null;default:''"`
	BillingVATNumber string `json:"billing_vat_number" gorm:"type:text;not null;default:''"`

	AcceptedTerms   bool `json:"accepted_terms" gorm:"not null;default:false"`
	AcceptedLicense bool `json:"accepted_license" gorm:"not null;default:false"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"not null"`

	Items []OrderItem `json:"items,omitempty" gorm:"-"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID              snowflake.ID  `json:"id" gorm:"primaryKey"`
	OrderID         snowflake.ID  `json:"order_id" gorm:"not null;index"`
	ProductID       snowflake.ID  `json:"product_id" gorm:"not null"`
	BinaryID        *snowflake.ID `json:"binary_id,omitempty"`
	Platform        string        `json:"platform" gorm:"type:text;not null;default:''"`
	ProductName     string        `json:"product_name" gorm:"type:text;not null"`
	ProductVersion  string        `json:"product_version" gorm:"type:text;not null;default:''"`
	UnitAmountCents int64         `json:"unit_amount_cents" gorm:"not null"`
	Quantity        int           `json:"quantity" gorm:"not null;default:1"`
	CreatedAt       time.Time     `json:"created_at" gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }
