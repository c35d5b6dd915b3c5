package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	newsletterdomain "github.com/comptaline/backoffice/internal/newsletter/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListSubscribers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	subs, err := s.newsletterSvc.List(c.Request.Context(), newsletterdomain.ListFilter{
		ActiveOnly: c.Query("active") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subs})
}

func (s *Server) UnsubscribeNewsletter(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if err := s.newsletterSvc.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unsubscribed": true})
}

func (s *Server) ExportSubscribers(c *gin.Context) {
	filename := fmt.Sprintf("abonnes-newsletter-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.newsletterSvc.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		AbortWithError(c, err)
		return
	}
}

func (s *Server) ImportSubscribers(c *gin.Context) {
	source := strings.TrimSpace(c.Query("source"))
	if source == "" {
		source = "import"
	}

	summary, err := s.newsletterSvc.ImportCSV(c.Request.Context(), c.Request.Body, source)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
