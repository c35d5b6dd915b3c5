package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("checkout_session_not_found")
	ErrStripeDisabled  = errors.New("stripe_not_configured")
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors collects every field problem so the storefront can show
// them all at once. Messages are customer-facing French.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v *ValidationErrors) Error() string { return "validation error" }

func (v *ValidationErrors) Add(field, code, message string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Code: code, Message: message})
}

func (v *ValidationErrors) HasErrors() bool { return len(v.Errors) > 0 }

type ItemRequest struct {
	ProductID string `json:"product_id"`
	BinaryID  string `json:"binary_id"`
	Quantity  int    `json:"quantity"`
}

type BillingRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	VATNumber string `json:"vat_number"`
}

type CreateSessionRequest struct {
	// OrderID targets an existing PENDING order on retry: the open
	// processor session is reused instead of creating a duplicate order.
	OrderID string `json:"order_id,omitempty"`

	OrderType string         `json:"order_type"`
	Brand     string         `json:"brand"`
	Items     []ItemRequest  `json:"items"`
	PromoCode string         `json:"promo_code"`
	Billing   BillingRequest `json:"billing"`

	AcceptTerms   bool `json:"accept_terms"`
	AcceptLicense bool `json:"accept_license"`

	UserID string `json:"-"`
}

type SessionStatus string

const (
	SessionStatusPendingPayment SessionStatus = "pending_payment"
	SessionStatusPaid           SessionStatus = "paid"
)

// SessionResponse is the 201 body. URL is the redirect target whatever
// branch produced it: the hosted checkout page for a payable cart, the
// success page for a zero-payable one.
type SessionResponse struct {
	OrderID       string        `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	Status        SessionStatus `json:"status"`
	AmountCents   int64         `json:"amount_cents"`
	DiscountCents int64         `json:"discount_cents"`
	URL           string        `json:"url"`
	CheckoutURL   string        `json:"checkout_url,omitempty"`
	SuccessURL    string        `json:"success_url,omitempty"`
}

type ConfirmationStatus string

const (
	ConfirmationPending ConfirmationStatus = "pending"
	ConfirmationPaid    ConfirmationStatus = "paid"
)

type ConfirmationResponse struct {
	Status        ConfirmationStatus `json:"status"`
	OrderID       string             `json:"order_id,omitempty"`
	OrderNumber   string             `json:"order_number,omitempty"`
	DownloadToken string             `json:"download_token,omitempty"`
	DownloadURL   string             `json:"download_url,omitempty"`
}
