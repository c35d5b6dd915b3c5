package server

import (
	"net/http"
	"strings"

	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListProducts(c *gin.Context) {
	req := catalogdomain.ListRequest{Name: strings.TrimSpace(c.Query("name"))}
	switch c.Query("active") {
	case "true":
		active := true
		req.Active = &active
	case "false":
		active := false
		req.Active = &active
	}

	products, err := s.catalogSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req catalogdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	product, err := s.catalogSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (s *Server) GetProduct(c *gin.Context) {
	product, err := s.catalogSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) UpdateProduct(c *gin.Context) {
	var req catalogdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = c.Param("id")

	product, err := s.catalogSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) ArchiveProduct(c *gin.Context) {
	product, err := s.catalogSvc.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) ListProductBinaries(c *gin.Context) {
	binaries, err := s.catalogSvc.ListBinaries(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": binaries})
}

func (s *Server) CreateProductBinary(c *gin.Context) {
	var req catalogdomain.CreateBinaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ProductID = c.Param("id")

	binary, err := s.catalogSvc.CreateBinary(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, binary)
}
