package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/order/domain"
	"github.com/comptaline/backoffice/internal/order/ordernumber"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	number *ordernumber.Generator
}

func New(p Params) domain.Service {
	s := &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
	s.number = ordernumber.New(func(ctx context.Context, number string) (bool, error) {
		return s.repo.NumberExists(ctx, s.db, number)
	})
	return s
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	o, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	items, err := s.repo.LoadItems(ctx, s.db, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *Service) GetByStripeSessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	o, err := s.repo.FindByStripeSessionID(ctx, s.db, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	items, err := s.repo.LoadItems(ctx, s.db, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Order, error) {
	return s.repo.List(ctx, s.db, filter)
}

// Create persists a new order with a freshly generated order number and its
// line items in one transaction.
func (s *Service) Create(ctx context.Context, order *domain.Order, items []domain.OrderItem) (*domain.Order, error) {
	if order == nil {
		return nil, gorm.ErrInvalidData
	}

	number, err := s.number.Generate(ctx, order.OrderType, domain.Brand(order.Brand))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order.ID = s.genID.Generate()
	order.OrderNumber = number
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = domain.StatusPending
	}
	if order.Currency == "" {
		order.Currency = "EUR"
	}
	if order.DownloadToken == "" {
		order.DownloadToken = uuid.NewString()
	}

	for i := range items {
		items[i].ID = s.genID.Generate()
		items[i].OrderID = order.ID
		items[i].CreatedAt = now
		if items[i].Quantity <= 0 {
			items[i].Quantity = 1
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, order); err != nil {
			return err
		}
		return s.repo.CreateItems(ctx, tx, items)
	})
	if err != nil {
		return nil, err
	}

	order.Items = items
	return order, nil
}

// AttachStripeSession records the hosted checkout session on a pending order.
func (s *Service) AttachStripeSession(ctx context.Context, orderID snowflake.ID, sessionID string) error {
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	order.StripeSessionID = sessionID
	order.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, s.db, order)
}

// MarkPaid applies the terminal PENDING -> PAID transition. The boolean
// result reports whether this call changed the order; callers gate
// first-time side effects on it. Billing snapshot fields are first-write-wins.
func (s *Service) MarkPaid(ctx context.Context, req MarkPaidRequest) (*domain.Order, bool, error) {
	return s.markPaid(ctx, domain.MarkPaidRequest(req))
}

type MarkPaidRequest = domain.MarkPaidRequest

func (s *Service) markPaid(ctx context.Context, req domain.MarkPaidRequest) (*domain.Order, bool, error) {
	order, err := s.repo.FindByID(ctx, s.db, req.OrderID)
	if err != nil {
		return nil, false, err
	}
	if order == nil {
		return nil, false, domain.ErrNotFound
	}

	changed, err := domain.Transition(order.Status, domain.StatusPaid)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return order, false, nil
	}

	now := time.Now().UTC()
	order.Status = domain.StatusPaid
	if order.PaidAt == nil {
		order.PaidAt = &now
	}
	if req.StripeSessionID != "" {
		order.StripeSessionID = req.StripeSessionID
	}
	if req.PaymentIntentID != "" {
		order.StripePaymentIntentID = req.PaymentIntentID
	}
	order.StripeEventID = req.StripeEventID
	if req.AmountTotal >= 0 {
		order.TotalPaidCents = req.AmountTotal
	}
	fillIfEmpty(&order.BillingName, req.BillingName)
	fillIfEmpty(&order.BillingEmail, req.BillingEmail)
	fillIfEmpty(&order.BillingAddress, req.BillingAddress)
	fillIfEmpty(&order.BillingCity, req.BillingCity)
	fillIfEmpty(&order.BillingZip, req.BillingZip)
	fillIfEmpty(&order.BillingCountry, req.BillingCountry)
	order.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, order); err != nil {
		return nil, false, err
	}

	s.log.Info("order marked paid",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total_paid_cents", order.TotalPaidCents),
	)
	return order, true, nil
}

// BackfillNumbers assigns numbers to orders whose stored value fails the
// format predicate. Returns how many were fixed.
func (s *Service) BackfillNumbers(ctx context.Context) (int, error) {
	orders, err := s.repo.List(ctx, s.db, domain.ListFilter{})
	if err != nil {
		return 0, err
	}

	fixed := 0
	for i := range orders {
		o := &orders[i]
		if ordernumber.IsValid(o.OrderNumber) {
			continue
		}
		number, err := s.number.Generate(ctx, o.OrderType, domain.Brand(o.Brand))
		if err != nil {
			return fixed, err
		}
		o.OrderNumber = number
		o.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, s.db, o); err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

func fillIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}
