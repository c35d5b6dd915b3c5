package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("article_not_found")
	ErrInvalidTitle = errors.New("invalid_title")
	ErrInvalidID    = errors.New("invalid_id")
	ErrSlugTaken    = errors.New("slug_taken")
)

type Article struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	Title          string       `json:"title" gorm:"type:text;not null"`
	Slug           string       `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Excerpt        string       `json:"excerpt" gorm:"type:text;not null;default:''"`
	Body           string       `json:"body" gorm:"type:text;not null;default:''"`
	CoverImageURL  string       `json:"cover_image_url" gorm:"type:text;not null;default:''"`
	SeoTitle       string       `json:"seo_title" gorm:"type:text;not null;default:''"`
	SeoDescription string       `json:"seo_description" gorm:"type:text;not null;default:''"`
	Published      bool         `json:"published" gorm:"not null;default:false"`
	PublishedAt    *time.Time   `json:"published_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null"`
}

func (Article) TableName() string { return "articles" }

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, article *Article) error
	Update(ctx context.Context, db *gorm.DB, article *Article) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Article, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Article, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Article, error)
}

type ListFilter struct {
	PublishedOnly bool
	Limit         int
	Offset        int
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Article, error)
	Update(ctx context.Context, req UpdateRequest) (*Article, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Article, error)
	// GetPublished serves the storefront: unpublished articles 404.
	GetPublished(ctx context.Context, slug string) (*Article, error)
	List(ctx context.Context, filter ListFilter) ([]Article, error)
}

type CreateRequest struct {
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Excerpt        string `json:"excerpt"`
	Body           string `json:"body"`
	CoverImageURL  string `json:"cover_image_url"`
	SeoTitle       string `json:"seo_title"`
	SeoDescription string `json:"seo_description"`
	Published      bool   `json:"published"`
}

type UpdateRequest struct {
	ID             string  `json:"-"`
	Title          *string `json:"title"`
	Slug           *string `json:"slug"`
	Excerpt        *string `json:"excerpt"`
	Body           *string `json:"body"`
	CoverImageURL  *string `json:"cover_image_url"`
	SeoTitle       *string `json:"seo_title"`
	SeoDescription *string `json:"seo_description"`
	Published      *bool   `json:"published"`
}
