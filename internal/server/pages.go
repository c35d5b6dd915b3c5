package server

import (
	"net/http"

	pagedomain "github.com/comptaline/backoffice/internal/page/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListPages(c *gin.Context) {
	pages, err := s.pageSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pages})
}

func (s *Server) CreatePage(c *gin.Context) {
	var req pagedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	page, err := s.pageSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, page)
}

func (s *Server) GetPage(c *gin.Context) {
	page, err := s.pageSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) UpdatePage(c *gin.Context) {
	var req pagedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = c.Param("id")

	page, err := s.pageSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) DeletePage(c *gin.Context) {
	if err := s.pageSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// SetPageBlocks replaces the page's blocks wholesale; the request order is
// the display order.
func (s *Server) SetPageBlocks(c *gin.Context) {
	var req struct {
		Blocks []pagedomain.BlockRequest `json:"blocks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	page, err := s.pageSvc.SetBlocks(c.Request.Context(), c.Param("id"), req.Blocks)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
