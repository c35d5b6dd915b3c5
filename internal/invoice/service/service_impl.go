package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/config"
	"github.com/comptaline/backoffice/internal/invoice/domain"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	"github.com/comptaline/backoffice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Config   config.Config
	Repo     domain.Repository
	Renderer domain.Renderer
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	renderer   domain.Renderer
	storageDir string
	now        func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		renderer:   p.Renderer,
		storageDir: p.Config.InvoiceStorageDir,
		now:        time.Now,
	}
}

func (s *Service) EnsureForOrder(ctx context.Context, order *orderdomain.Order) (*domain.Invoice, error) {
	if order == nil {
		return nil, gorm.ErrInvalidData
	}
	if order.Status != orderdomain.StatusPaid {
		return nil, domain.ErrOrderUnpaid
	}

	existing, err := s.repo.FindByOrderID(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	issuedAt := s.now().UTC()
	if order.PaidAt != nil {
		issuedAt = order.PaidAt.UTC()
	}
	amount := order.TotalPaidCents
	if amount == 0 {
		amount = order.TotalCents - order.DiscountCents
	}

	invoice := &domain.Invoice{
		ID:          s.genID.Generate(),
		OrderID:     order.ID,
		AmountCents: amount,
		Currency:    order.Currency,
		IssuedAt:    issuedAt,
		CreatedAt:   s.now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sequence, err := s.repo.NextSequence(ctx, tx, issuedAt.Year())
		if err != nil {
			return err
		}
		invoice.Number = domain.FormatNumber(issuedAt.Year(), sequence)
		return s.repo.Create(ctx, tx, invoice)
	})
	if err != nil {
		// A replayed delivery may have issued the invoice between the
		// existence check and the insert. The unique order_id settles it.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindByOrderID(ctx, s.db, order.ID)
		}
		return nil, err
	}

	if err := s.writePDF(invoice, order); err != nil {
		// The fiscal record exists; the PDF can be regenerated later.
		s.log.Error("invoice pdf generation failed",
			zap.String("invoice_number", invoice.Number),
			zap.Error(err),
		)
		return invoice, nil
	}
	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return nil, err
	}

	s.log.Info("invoice issued",
		zap.String("invoice_number", invoice.Number),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("amount_cents", invoice.AmountCents),
	)
	return invoice, nil
}

func (s *Service) writePDF(invoice *domain.Invoice, order *orderdomain.Order) error {
	raw, err := s.renderer.Render(invoice, order)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.storageDir, invoice.Number+".pdf")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return err
	}
	invoice.PDFPath = path
	return nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (s *Service) GetByOrder(ctx context.Context, orderID snowflake.ID) (*domain.Invoice, error) {
	inv, err := s.repo.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]domain.Invoice, error) {
	return s.repo.List(ctx, s.db, limit)
}
