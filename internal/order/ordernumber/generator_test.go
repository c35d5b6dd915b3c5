package ordernumber

import (
	"context"
	"errors"
	"testing"

	"github.com/comptaline/backoffice/internal/order/domain"
)

func TestGenerateFormat(t *testing.T) {
	tests := []struct {
		name      string
		orderType domain.Type
		brand     domain.Brand
		prefix    string
	}{
		{"product", domain.TypeProduct, "", "PT"},
		{"subscription comptapro", domain.TypeSubscription, domain.BrandComptaPro, "CP"},
		{"subscription comptassist", domain.TypeSubscription, domain.BrandComptAssist, "CA"},
	}

	gen := New(func(ctx context.Context, number string) (bool, error) { return false, nil })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, err := gen.Generate(context.Background(), tt.orderType, tt.brand)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if !IsValid(number) {
				t.Fatalf("number %q does not match expected format", number)
			}
			if number[:2] != tt.prefix {
				t.Fatalf("number %q has prefix %q, want %q", number, number[:2], tt.prefix)
			}
			if len(number) != 12 {
				t.Fatalf("number %q has length %d, want 12", number, len(number))
			}
		})
	}
}

func TestGenerateBrandRequired(t *testing.T) {
	gen := New(func(ctx context.Context, number string) (bool, error) { return false, nil })
	if _, err := gen.Generate(context.Background(), domain.TypeSubscription, ""); !errors.Is(err, domain.ErrBrandRequired) {
		t.Fatalf("expected ErrBrandRequired, got %v", err)
	}
}

func TestGenerateUnknownType(t *testing.T) {
	gen := New(func(ctx context.Context, number string) (bool, error) { return false, nil })
	if _, err := gen.Generate(context.Background(), domain.Type("gift"), ""); !errors.Is(err, domain.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	calls := 0
	gen := New(func(ctx context.Context, number string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	number, err := gen.Generate(context.Background(), domain.TypeProduct, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 lookups, got %d", calls)
	}
	if !IsValid(number) {
		t.Fatalf("number %q invalid after retry", number)
	}
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	calls := 0
	gen := New(func(ctx context.Context, number string) (bool, error) {
		calls++
		return true, nil
	})
	if _, err := gen.Generate(context.Background(), domain.TypeProduct, ""); !errors.Is(err, domain.ErrNumberExhausted) {
		t.Fatalf("expected ErrNumberExhausted, got %v", err)
	}
	if calls != defaultMaxAttempts {
		t.Fatalf("expected %d lookups, got %d", defaultMaxAttempts, calls)
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{"PT0123456789", "CP9999999999", "CA0000000001"}
	for _, s := range valid {
		if !IsValid(s) {
			t.Errorf("expected %q valid", s)
		}
	}
	invalid := []string{"", "PT123", "XX0123456789", "pt0123456789", "PT01234567890", "CP12345678a9"}
	for _, s := range invalid {
		if IsValid(s) {
			t.Errorf("expected %q invalid", s)
		}
	}
}
