package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	checkoutdomain "github.com/comptaline/backoffice/internal/checkout/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateCheckoutSession(c *gin.Context) {
	var req checkoutdomain.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.checkoutSvc.CreateSession(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ConfirmCheckout is polled by the storefront success page. 202 means the
// webhook has not been reconciled yet; the client retries.
func (s *Server) ConfirmCheckout(c *gin.Context) {
	var (
		resp *checkoutdomain.ConfirmationResponse
		err  error
	)
	switch {
	case strings.TrimSpace(c.Query("session_id")) != "":
		resp, err = s.checkoutSvc.Confirm(c.Request.Context(), strings.TrimSpace(c.Query("session_id")))
	case strings.TrimSpace(c.Query("order_id")) != "":
		orderID, parseErr := snowflake.ParseString(strings.TrimSpace(c.Query("order_id")))
		if parseErr != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		resp, err = s.checkoutSvc.ConfirmByOrder(c.Request.Context(), orderID)
	default:
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if resp.Status == checkoutdomain.ConfirmationPending {
		c.JSON(http.StatusAccepted, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
