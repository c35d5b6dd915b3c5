package server

import (
	"errors"
	"net/http"

	articledomain "github.com/comptaline/backoffice/internal/article/domain"
	authdomain "github.com/comptaline/backoffice/internal/auth/domain"
	"github.com/comptaline/backoffice/internal/authorization"
	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	checkoutdomain "github.com/comptaline/backoffice/internal/checkout/domain"
	downloaddomain "github.com/comptaline/backoffice/internal/download/domain"
	invoicedomain "github.com/comptaline/backoffice/internal/invoice/domain"
	newsletterdomain "github.com/comptaline/backoffice/internal/newsletter/domain"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	pagedomain "github.com/comptaline/backoffice/internal/page/domain"
	paymentdomain "github.com/comptaline/backoffice/internal/payment/domain"
	promodomain "github.com/comptaline/backoffice/internal/promo/domain"
	seodomain "github.com/comptaline/backoffice/internal/seo/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string                           `json:"type"`
	Message string                           `json:"message"`
	Errors  []checkoutdomain.ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case isBadRequestError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrUserDisabled):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isGoneError(err):
		return http.StatusGone, errorPayload{
			Type:    "gone",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *checkoutdomain.ValidationErrors {
	var vErr *checkoutdomain.ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isBadRequestError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		// Reconciliation failures answer 400 so Stripe redelivers; the
		// event row stays ERROR and the retry reprocesses it.
		errors.Is(err, paymentdomain.ErrOrderNotResolved),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrInvalidCode),
		errors.Is(err, catalogdomain.ErrInvalidName),
		// An order holding a deactivated product cannot settle; the
		// delivery is rejected as a client error, not a server fault.
		errors.Is(err, catalogdomain.ErrInactiveProduct),
		errors.Is(err, catalogdomain.ErrInactiveBinary),
		errors.Is(err, promodomain.ErrInvalidID),
		errors.Is(err, promodomain.ErrInvalidCode),
		errors.Is(err, promodomain.ErrBadDiscount),
		errors.Is(err, articledomain.ErrInvalidID),
		errors.Is(err, articledomain.ErrInvalidTitle),
		errors.Is(err, pagedomain.ErrInvalidID),
		errors.Is(err, pagedomain.ErrInvalidTitle),
		errors.Is(err, pagedomain.ErrInvalidBlockType),
		errors.Is(err, seodomain.ErrInvalidID),
		errors.Is(err, seodomain.ErrInvalidRoute),
		errors.Is(err, authdomain.ErrInvalidID),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, authdomain.ErrInvalidRole),
		errors.Is(err, newsletterdomain.ErrInvalidEmail),
		errors.Is(err, newsletterdomain.ErrInvalidCSV):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, articledomain.ErrSlugTaken),
		errors.Is(err, pagedomain.ErrSlugTaken),
		errors.Is(err, authdomain.ErrEmailTaken),
		errors.Is(err, newsletterdomain.ErrAlreadySubscribed):
		return true
	default:
		return false
	}
}

// Expired or exhausted download links are gone, not missing: the token was
// once valid and the storefront shows a dedicated message for it.
func isGoneError(err error) bool {
	switch {
	case errors.Is(err, downloaddomain.ErrExpired),
		errors.Is(err, downloaddomain.ErrExhausted),
		errors.Is(err, downloaddomain.ErrRevoked):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrBinaryNotFound),
		errors.Is(err, promodomain.ErrNotFound),
		errors.Is(err, articledomain.ErrNotFound),
		errors.Is(err, pagedomain.ErrNotFound),
		errors.Is(err, seodomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, downloaddomain.ErrNotFound),
		errors.Is(err, newsletterdomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, checkoutdomain.ErrSessionNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
