package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/promo/domain"
	"github.com/comptaline/backoffice/internal/promo/repository"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:promo_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.PromoCode{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		repo:  repository.Provide(),
		now:   time.Now,
	}
}

func TestValidatePercentDiscount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	percent := 20
	if _, err := svc.Create(ctx, domain.CreateRequest{Code: "rentree20", PercentOff: &percent}); err != nil {
		t.Fatalf("create: %v", err)
	}

	code, discount, err := svc.Validate(ctx, "RENTREE20", []string{"software"}, 10000)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if discount != 2000 {
		t.Fatalf("want discount 2000, got %d", discount)
	}
	if code.Code != "RENTREE20" {
		t.Fatalf("code not normalized: %q", code.Code)
	}
}

func TestValidateFixedDiscountClamped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	amount := int64(5000)
	if _, err := svc.Create(ctx, domain.CreateRequest{Code: "MOINS50", AmountOffCents: &amount}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Discount equal to the subtotal leaves a zero-payable cart, never a
	// negative one.
	_, discount, err := svc.Validate(ctx, "MOINS50", nil, 5000)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if discount != 5000 {
		t.Fatalf("want discount 5000, got %d", discount)
	}

	_, discount, err = svc.Validate(ctx, "MOINS50", nil, 3000)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if discount != 3000 {
		t.Fatalf("want clamped discount 3000, got %d", discount)
	}
}

func TestValidateRejections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	percent := 10
	expired := time.Now().Add(-time.Hour).Format(time.RFC3339)
	if _, err := svc.Create(ctx, domain.CreateRequest{Code: "OLD", PercentOff: &percent, ExpiresAt: expired}); err != nil {
		t.Fatalf("create expired: %v", err)
	}

	one := 1
	if _, err := svc.Create(ctx, domain.CreateRequest{Code: "ONCE", PercentOff: &percent, MaxUses: &one}); err != nil {
		t.Fatalf("create capped: %v", err)
	}
	if err := svc.RecordUse(ctx, "ONCE"); err != nil {
		t.Fatalf("record use: %v", err)
	}

	if _, err := svc.Create(ctx, domain.CreateRequest{Code: "SOFT", PercentOff: &percent, Category: "software"}); err != nil {
		t.Fatalf("create categorized: %v", err)
	}

	tests := []struct {
		name       string
		code       string
		categories []string
		want       error
	}{
		{"unknown", "NOPE", nil, domain.ErrNotFound},
		{"expired", "OLD", nil, domain.ErrExpired},
		{"exhausted", "ONCE", nil, domain.ErrExhausted},
		{"wrong category", "SOFT", []string{"training"}, domain.ErrWrongCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Validate(ctx, tt.code, tt.categories, 10000)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestIncrementUsageStopsAtCap(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	percent := 10
	two := 2
	created, err := svc.Create(ctx, domain.CreateRequest{Code: "TWICE", PercentOff: &percent, MaxUses: &two})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	repo := repository.Provide()
	for i := 0; i < 2; i++ {
		ok, err := repo.IncrementUsage(ctx, svc.db, created.ID)
		if err != nil || !ok {
			t.Fatalf("increment %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := repo.IncrementUsage(ctx, svc.db, created.ID)
	if err != nil {
		t.Fatalf("increment past cap: %v", err)
	}
	if ok {
		t.Fatal("increment past cap should not update a row")
	}
}
