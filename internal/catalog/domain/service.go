package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Product, error)
	Update(ctx context.Context, req UpdateRequest) (*Product, error)
	Archive(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, req ListRequest) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)

	CreateBinary(ctx context.Context, req CreateBinaryRequest) (*ProductBinary, error)
	ListBinaries(ctx context.Context, productID string) ([]ProductBinary, error)

	// ResolveActive returns the product only when it exists and is active;
	// when binaryID is non-zero the binary must exist, be active, and belong
	// to the product.
	ResolveActive(ctx context.Context, productID snowflake.ID, binaryID *snowflake.ID) (*Product, *ProductBinary, error)
}

type ListRequest struct {
	Name   string
	Active *bool
}

type CreateRequest struct {
	Code            string         `json:"code"`
	Name            string         `json:"name"`
	Description     *string        `json:"description"`
	Category        string         `json:"category"`
	UnitAmountCents int64          `json:"unit_amount_cents"`
	Active          *bool          `json:"active"`
	Metadata        map[string]any `json:"metadata"`
}

type UpdateRequest struct {
	ID              string  `json:"-"`
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Category        *string `json:"category"`
	UnitAmountCents *int64  `json:"unit_amount_cents"`
	Active          *bool   `json:"active"`
}

type CreateBinaryRequest struct {
	ProductID string `json:"-"`
	Platform  string `json:"platform"`
	Version   string `json:"version"`
	FilePath  string `json:"file_path"`
	Checksum  string `json:"checksum"`
}
