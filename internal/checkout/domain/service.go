package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// CreateSession validates the cart and billing details, creates the
	// PENDING order, and opens a hosted payment session. A cart whose
	// payable amount is zero is settled immediately without the processor.
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionResponse, error)

	// Confirm is the storefront poller: it reports whether the session's
	// order has been reconciled, falling back to the processor when the
	// webhook has not landed yet.
	Confirm(ctx context.Context, sessionID string) (*ConfirmationResponse, error)

	// ConfirmByOrder is the poller variant used when checkout settled
	// without a processor session (zero-payable carts): the success URL
	// carries the order id instead of a session id.
	ConfirmByOrder(ctx context.Context, orderID snowflake.ID) (*ConfirmationResponse, error)
}
