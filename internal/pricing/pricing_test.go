package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	catalogdomain.Service

	products map[snowflake.ID]*catalogdomain.Product
	binaries map[snowflake.ID]*catalogdomain.ProductBinary
}

func (f *fakeCatalog) ResolveActive(ctx context.Context, productID snowflake.ID, binaryID *snowflake.ID) (*catalogdomain.Product, *catalogdomain.ProductBinary, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, nil, catalogdomain.ErrNotFound
	}
	if !p.Active {
		return nil, nil, catalogdomain.ErrInactiveProduct
	}
	if binaryID == nil || *binaryID == 0 {
		return p, nil, nil
	}
	b, ok := f.binaries[*binaryID]
	if !ok || b.ProductID != p.ID {
		return nil, nil, catalogdomain.ErrBinaryNotFound
	}
	if !b.Active {
		return nil, nil, catalogdomain.ErrInactiveBinary
	}
	return p, b, nil
}

func newTestService(catalog *fakeCatalog) *Service {
	return &Service{log: zap.NewNop(), catalog: catalog}
}

func TestQuoteTotals(t *testing.T) {
	winID := snowflake.ID(201)
	catalog := &fakeCatalog{
		products: map[snowflake.ID]*catalogdomain.Product{
			1: {ID: 1, Code: "COMPTA-PRO", Name: "Compta Pro", Currency: "EUR", UnitAmountCents: 14900, Active: true},
			2: {ID: 2, Code: "COMPTA-ASSIST", Name: "Compta Assist", Currency: "EUR", UnitAmountCents: 4900, Active: true},
		},
		binaries: map[snowflake.ID]*catalogdomain.ProductBinary{
			winID: {ID: winID, ProductID: 1, Platform: "windows", Version: "12.4.1", Active: true},
		},
	}
	svc := newTestService(catalog)

	quote, err := svc.Quote(context.Background(), []CartItem{
		{ProductID: 1, BinaryID: &winID, Quantity: 1},
		{ProductID: 2, Quantity: 3},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	assert.Equal(t, "EUR", quote.Currency)
	assert.Equal(t, int64(14900+3*4900), quote.SubtotalCents)
	assert.Len(t, quote.Lines, 2)
	assert.Equal(t, "windows", quote.Lines[0].Platform)
	assert.Equal(t, "12.4.1", quote.Lines[0].Version)
	assert.Equal(t, int64(14700), quote.Lines[1].TotalCents)
}

func TestQuoteErrors(t *testing.T) {
	catalog := &fakeCatalog{
		products: map[snowflake.ID]*catalogdomain.Product{
			1: {ID: 1, Currency: "EUR", UnitAmountCents: 1000, Active: true},
			2: {ID: 2, Currency: "EUR", UnitAmountCents: 1000, Active: false},
		},
		binaries: map[snowflake.ID]*catalogdomain.ProductBinary{},
	}
	svc := newTestService(catalog)
	missing := snowflake.ID(999)

	tests := []struct {
		name  string
		items []CartItem
		want  error
	}{
		{"empty cart", nil, ErrEmptyCart},
		{"zero quantity", []CartItem{{ProductID: 1, Quantity: 0}}, ErrInvalidQuantity},
		{"unknown product", []CartItem{{ProductID: 42, Quantity: 1}}, ErrUnknownProduct},
		{"inactive product", []CartItem{{ProductID: 2, Quantity: 1}}, ErrInactiveProduct},
		{"unknown binary", []CartItem{{ProductID: 1, BinaryID: &missing, Quantity: 1}}, ErrUnknownBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Quote(context.Background(), tt.items)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}
