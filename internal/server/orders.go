package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListFilter{
		Status: orderdomain.Status(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) GetOrder(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	order, err := s.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// BackfillOrderNumbers assigns order numbers to legacy rows that predate
// numbering. Runs once after a data import; repeat calls are no-ops.
func (s *Server) BackfillOrderNumbers(c *gin.Context) {
	updated, err := s.orderSvc.BackfillNumbers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (s *Server) DownloadOrderInvoice(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	invoice, err := s.invoiceSvc.GetByOrder(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.FileAttachment(invoice.PDFPath, fmt.Sprintf("%s.pdf", invoice.Number))
}
