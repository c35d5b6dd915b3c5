package domain

import (
	"context"

	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
)

type Service interface {
	// HandleWebhook verifies the Stripe signature against the raw body and
	// reconciles the event. A nil error (or ErrEventAlreadyProcessed) maps
	// to HTTP 200; ErrInvalidSignature to 400.
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error

	ListEvents(ctx context.Context, limit int) ([]EventLog, error)
}

// Fulfiller runs the post-payment side effects: download links, invoice,
// confirmation emails, promo redemption. Each effect must be individually
// idempotent so a replayed event cannot double-apply any of them.
type Fulfiller interface {
	Fulfill(ctx context.Context, order *orderdomain.Order) error
}
