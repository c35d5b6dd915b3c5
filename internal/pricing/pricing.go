package pricing

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart        = errors.New("empty_cart")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrUnknownProduct   = errors.New("unknown_product")
	ErrInactiveProduct  = errors.New("inactive_product")
	ErrUnknownBinary    = errors.New("unknown_binary")
	ErrCurrencyMismatch = errors.New("currency_mismatch")
)

type CartItem struct {
	ProductID snowflake.ID
	BinaryID  *snowflake.ID
	Quantity  int
}

// Line is a priced cart entry carrying a snapshot of the catalog row, so
// orders stay readable after the product changes.
type Line struct {
	ProductID       snowflake.ID
	BinaryID        *snowflake.ID
	ProductCode     string
	ProductName     string
	Category        string
	Platform        string
	Version         string
	UnitAmountCents int64
	Quantity        int
	TotalCents      int64
}

type Quote struct {
	Lines         []Line
	Currency      string
	SubtotalCents int64
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Catalog catalogdomain.Service
}

type Service struct {
	log     *zap.Logger
	catalog catalogdomain.Service
}

func New(p Params) *Service {
	return &Service{
		log:     p.Log.Named("pricing.service"),
		catalog: p.Catalog,
	}
}

// Quote prices the cart against the live catalog. Unknown or inactive
// rows are caller errors; anything else bubbles up as-is.
func (s *Service) Quote(ctx context.Context, items []CartItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	q := &Quote{Currency: "EUR"}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		product, binary, err := s.catalog.ResolveActive(ctx, item.ProductID, item.BinaryID)
		if err != nil {
			switch {
			case errors.Is(err, catalogdomain.ErrNotFound):
				return nil, ErrUnknownProduct
			case errors.Is(err, catalogdomain.ErrInactiveProduct):
				return nil, ErrInactiveProduct
			case errors.Is(err, catalogdomain.ErrBinaryNotFound), errors.Is(err, catalogdomain.ErrInactiveBinary):
				return nil, ErrUnknownBinary
			}
			return nil, err
		}
		if product.Currency != q.Currency {
			return nil, ErrCurrencyMismatch
		}

		line := Line{
			ProductID:       product.ID,
			BinaryID:        item.BinaryID,
			ProductCode:     product.Code,
			ProductName:     product.Name,
			Category:        product.Category,
			UnitAmountCents: product.UnitAmountCents,
			Quantity:        item.Quantity,
			TotalCents:      product.UnitAmountCents * int64(item.Quantity),
		}
		if binary != nil {
			line.Platform = binary.Platform
			line.Version = binary.Version
		}
		q.Lines = append(q.Lines, line)
		q.SubtotalCents += line.TotalCents
	}
	return q, nil
}
