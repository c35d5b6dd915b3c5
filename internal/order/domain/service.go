package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Order, error)
	GetByStripeSessionID(ctx context.Context, sessionID string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	Create(ctx context.Context, order *Order, items []OrderItem) (*Order, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) (*Order, bool, error)
	AttachStripeSession(ctx context.Context, orderID snowflake.ID, sessionID string) error
	BackfillNumbers(ctx context.Context) (int, error)
}

// MarkPaidRequest carries the processor-authoritative payment facts applied
// on the PENDING -> PAID transition.
type MarkPaidRequest struct {
	OrderID         snowflake.ID
	StripeSessionID string
	PaymentIntentID string
	StripeEventID   string
	AmountTotal     int64
	Currency        string

	BillingName    string
	BillingEmail   string
	BillingAddress string
	BillingCity    string
	BillingZip     string
	BillingCountry string
}
