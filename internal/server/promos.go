package server

import (
	"net/http"

	promodomain "github.com/comptaline/backoffice/internal/promo/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListPromoCodes(c *gin.Context) {
	codes, err := s.promoSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": codes})
}

func (s *Server) CreatePromoCode(c *gin.Context) {
	var req promodomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	code, err := s.promoSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

func (s *Server) GetPromoCode(c *gin.Context) {
	code, err := s.promoSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}

func (s *Server) UpdatePromoCode(c *gin.Context) {
	var req promodomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = c.Param("id")

	code, err := s.promoSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}
