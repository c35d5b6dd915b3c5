package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
)

type Service interface {
	// EnsureForOrder issues the invoice for a paid order, or returns the
	// existing one. Safe to call from replayed webhook deliveries.
	EnsureForOrder(ctx context.Context, order *orderdomain.Order) (*Invoice, error)

	Get(ctx context.Context, id snowflake.ID) (*Invoice, error)
	GetByOrder(ctx context.Context, orderID snowflake.ID) (*Invoice, error)
	List(ctx context.Context, limit int) ([]Invoice, error)
}

// Renderer produces the invoice PDF bytes from the fiscal record and the
// order snapshot it documents.
type Renderer interface {
	Render(invoice *Invoice, order *orderdomain.Order) ([]byte, error)
}
