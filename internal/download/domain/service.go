package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
)

type Service interface {
	// EnsureLinks creates one active link per binary-backed order item.
	// Items that already have an active link keep it, so replays are safe.
	EnsureLinks(ctx context.Context, order *orderdomain.Order) ([]DownloadLink, error)

	// Resolve validates a token and claims one download slot.
	Resolve(ctx context.Context, token string) (*Delivery, error)

	ListByOrder(ctx context.Context, orderID snowflake.ID) ([]DownloadLink, error)
	Revoke(ctx context.Context, id snowflake.ID) error
}
