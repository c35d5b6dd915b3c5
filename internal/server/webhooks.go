package server

import (
	"errors"
	"net/http"
	"strconv"

	paymentdomain "github.com/comptaline/backoffice/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

// HandleStripeWebhook needs the raw body: the signature covers the exact
// bytes Stripe sent. Replays of an already processed event are acknowledged
// with 200 so Stripe stops retrying.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err = s.paymentSvc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil && !errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (s *Server) ListWebhookEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events, err := s.paymentSvc.ListEvents(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}
