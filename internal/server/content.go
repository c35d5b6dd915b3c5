package server

import (
	"net/http"
	"strconv"
	"strings"

	articledomain "github.com/comptaline/backoffice/internal/article/domain"
	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListPublicProducts(c *gin.Context) {
	active := true
	products, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListRequest{Active: &active})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (s *Server) ListPublicArticles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	articles, err := s.articleSvc.List(c.Request.Context(), articledomain.ListFilter{
		PublishedOnly: true,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": articles})
}

func (s *Server) GetPublicArticle(c *gin.Context) {
	article, err := s.articleSvc.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) GetPublicPage(c *gin.Context) {
	page, err := s.pageSvc.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) ResolveSeo(c *gin.Context) {
	resolved, err := s.seoSvc.Resolve(c.Request.Context(), c.Query("route"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

func (s *Server) SubscribeNewsletter(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "website"
	}

	sub, err := s.newsletterSvc.Subscribe(c.Request.Context(), req.Email, source)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"email": sub.Email})
}
