package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("seo_entry_not_found")
	ErrInvalidRoute = errors.New("invalid_route")
	ErrInvalidID    = errors.New("invalid_id")
	ErrRouteTaken   = errors.New("route_taken")
)

// DefaultsRoute is the reserved key for the site-wide fallback entry.
const DefaultsRoute = "_defaults"

// SeoEntry overrides meta tags for one storefront route. The geo fields
// feed the geo.region / geo.placename tags.
type SeoEntry struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	Route         string       `json:"route" gorm:"type:text;not null;uniqueIndex"`
	Title         string       `json:"title" gorm:"type:text;not null;default:''"`
	Description   string       `json:"description" gorm:"type:text;not null;default:''"`
	CanonicalURL  string       `json:"canonical_url" gorm:"type:text;not null;default:''"`
	OGImageURL    string       `json:"og_image_url" gorm:"type:text;not null;default:''"`
	GeoRegion     string       `json:"geo_region" gorm:"type:text;not null;default:''"`
	GeoPlacename  string       `json:"geo_placename" gorm:"type:text;not null;default:''"`
	RobotsNoIndex bool         `json:"robots_noindex" gorm:"column:robots_noindex;not null;default:false"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null"`
}

func (SeoEntry) TableName() string { return "seo_entries" }

// Resolved is what the storefront receives: the route entry merged over
// the site defaults, field by field.
type Resolved struct {
	Route         string `json:"route"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	CanonicalURL  string `json:"canonical_url"`
	OGImageURL    string `json:"og_image_url"`
	GeoRegion     string `json:"geo_region"`
	GeoPlacename  string `json:"geo_placename"`
	RobotsNoIndex bool   `json:"robots_noindex"`
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, entry *SeoEntry) error
	Update(ctx context.Context, db *gorm.DB, entry *SeoEntry) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SeoEntry, error)
	FindByRoute(ctx context.Context, db *gorm.DB, route string) (*SeoEntry, error)
	List(ctx context.Context, db *gorm.DB) ([]SeoEntry, error)
}

type Service interface {
	// Resolve merges the route entry over the defaults entry. Results are
	// cached with a TTL; writes through this service invalidate the cache.
	Resolve(ctx context.Context, route string) (*Resolved, error)

	Upsert(ctx context.Context, req UpsertRequest) (*SeoEntry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]SeoEntry, error)
}

type UpsertRequest struct {
	Route         string `json:"route"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	CanonicalURL  string `json:"canonical_url"`
	OGImageURL    string `json:"og_image_url"`
	GeoRegion     string `json:"geo_region"`
	GeoPlacename  string `json:"geo_placename"`
	RobotsNoIndex bool   `json:"robots_noindex"`
}
