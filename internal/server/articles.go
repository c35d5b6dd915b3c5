package server

import (
	"net/http"
	"strconv"

	articledomain "github.com/comptaline/backoffice/internal/article/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListArticles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	articles, err := s.articleSvc.List(c.Request.Context(), articledomain.ListFilter{
		PublishedOnly: c.Query("published") == "true",
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": articles})
}

func (s *Server) CreateArticle(c *gin.Context) {
	var req articledomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	article, err := s.articleSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

func (s *Server) GetArticle(c *gin.Context) {
	article, err := s.articleSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) UpdateArticle(c *gin.Context) {
	var req articledomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = c.Param("id")

	article, err := s.articleSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) DeleteArticle(c *gin.Context) {
	if err := s.articleSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
