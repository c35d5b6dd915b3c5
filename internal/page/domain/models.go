package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("page_not_found")
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrInvalidID        = errors.New("invalid_id")
	ErrSlugTaken        = errors.New("slug_taken")
	ErrInvalidBlockType = errors.New("invalid_block_type")
)

type BlockType string

const (
	BlockHero    BlockType = "hero"
	BlockText    BlockType = "text"
	BlockCTA     BlockType = "cta"
	BlockFAQ     BlockType = "faq"
	BlockPricing BlockType = "pricing"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockHero, BlockText, BlockCTA, BlockFAQ, BlockPricing:
		return true
	}
	return false
}

type Page struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	Title          string       `json:"title" gorm:"type:text;not null"`
	Slug           string       `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	SeoTitle       string       `json:"seo_title" gorm:"type:text;not null;default:''"`
	SeoDescription string       `json:"seo_description" gorm:"type:text;not null;default:''"`
	Published      bool         `json:"published" gorm:"not null;default:false"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null"`

	Blocks []PageBlock `json:"blocks,omitempty" gorm:"-"`
}

func (Page) TableName() string { return "pages" }

// PageBlock is one ordered section of a builder page. Payload is free-form
// and owned by the storefront renderer for that block type.
type PageBlock struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey"`
	PageID    snowflake.ID   `json:"page_id" gorm:"not null;index"`
	Type      BlockType      `json:"type" gorm:"type:text;not null"`
	Position  int            `json:"position" gorm:"not null"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null"`
}

func (PageBlock) TableName() string { return "page_blocks" }

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, page *Page) error
	Update(ctx context.Context, db *gorm.DB, page *Page) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Page, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Page, error)
	List(ctx context.Context, db *gorm.DB) ([]Page, error)

	LoadBlocks(ctx context.Context, db *gorm.DB, pageID snowflake.ID) ([]PageBlock, error)
	ReplaceBlocks(ctx context.Context, db *gorm.DB, pageID snowflake.ID, blocks []PageBlock) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Page, error)
	Update(ctx context.Context, req UpdateRequest) (*Page, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Page, error)
	GetPublished(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context) ([]Page, error)

	// SetBlocks replaces the page's blocks wholesale, renumbering
	// positions in request order.
	SetBlocks(ctx context.Context, pageID string, blocks []BlockRequest) (*Page, error)
}

type CreateRequest struct {
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	SeoTitle       string `json:"seo_title"`
	SeoDescription string `json:"seo_description"`
	Published      bool   `json:"published"`
}

type UpdateRequest struct {
	ID             string  `json:"-"`
	Title          *string `json:"title"`
	Slug           *string `json:"slug"`
	SeoTitle       *string `json:"seo_title"`
	SeoDescription *string `json:"seo_description"`
	Published      *bool   `json:"published"`
}

type BlockRequest struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}
