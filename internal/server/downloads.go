package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// ResolveDownload claims one download slot and streams the binary. Expired,
// exhausted and revoked tokens come back 410 so the storefront can offer
// support contact instead of a generic 404.
func (s *Server) ResolveDownload(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	delivery, err := s.downloadSvc.Resolve(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.FileAttachment(delivery.FilePath, delivery.FileName)
}

func (s *Server) ListOrderDownloads(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	links, err := s.downloadSvc.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": links})
}

func (s *Server) RevokeDownload(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if err := s.downloadSvc.Revoke(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": true})
}
