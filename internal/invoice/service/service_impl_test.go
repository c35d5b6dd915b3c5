package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/invoice/domain"
	"github.com/comptaline/backoffice/internal/invoice/repository"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubRenderer struct{}

func (stubRenderer) Render(invoice *domain.Invoice, order *orderdomain.Order) ([]byte, error) {
	return []byte("%PDF-1.7 " + invoice.Number), nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:invoice_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Invoice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return &Service{
		db:         db,
		log:        zap.NewNop(),
		genID:      node,
		repo:       repository.Provide(),
		renderer:   stubRenderer{},
		storageDir: t.TempDir(),
		now:        time.Now,
	}
}

func paidOrder(node *snowflake.Node, totalPaid int64) *orderdomain.Order {
	paidAt := time.Now().UTC()
	return &orderdomain.Order{
		ID:             node.Generate(),
		OrderNumber:    "PT0000000001",
		Status:         orderdomain.StatusPaid,
		Currency:       "EUR",
		TotalPaidCents: totalPaid,
		PaidAt:         &paidAt,
	}
}

func TestEnsureForOrderNumbersAreSequential(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	year := time.Now().UTC().Year()

	first, err := svc.EnsureForOrder(ctx, paidOrder(svc.genID, 14900))
	if err != nil {
		t.Fatalf("first invoice: %v", err)
	}
	second, err := svc.EnsureForOrder(ctx, paidOrder(svc.genID, 4900))
	if err != nil {
		t.Fatalf("second invoice: %v", err)
	}

	wantFirst := fmt.Sprintf("FAC-%d-00001", year)
	wantSecond := fmt.Sprintf("FAC-%d-00002", year)
	if first.Number != wantFirst || second.Number != wantSecond {
		t.Fatalf("want %s then %s, got %s then %s", wantFirst, wantSecond, first.Number, second.Number)
	}

	raw, err := os.ReadFile(first.PDFPath)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("pdf file is empty")
	}
}

func TestEnsureForOrderIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	order := paidOrder(svc.genID, 14900)

	first, err := svc.EnsureForOrder(ctx, order)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.EnsureForOrder(ctx, order)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.ID != second.ID || first.Number != second.Number {
		t.Fatalf("replay issued a new invoice: %+v vs %+v", first, second)
	}
}

func TestEnsureForOrderRejectsUnpaid(t *testing.T) {
	svc := newTestService(t)
	order := paidOrder(svc.genID, 14900)
	order.Status = orderdomain.StatusPending

	if _, err := svc.EnsureForOrder(context.Background(), order); !errors.Is(err, domain.ErrOrderUnpaid) {
		t.Fatalf("want order unpaid, got %v", err)
	}
}
