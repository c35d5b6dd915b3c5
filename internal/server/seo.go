package server

import (
	"net/http"

	seodomain "github.com/comptaline/backoffice/internal/seo/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListSeoEntries(c *gin.Context) {
	entries, err := s.seoSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (s *Server) UpsertSeoEntry(c *gin.Context) {
	var req seodomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	entry, err := s.seoSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) DeleteSeoEntry(c *gin.Context) {
	if err := s.seoSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
