package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	"github.com/comptaline/backoffice/internal/config"
	"github.com/comptaline/backoffice/internal/observability/metrics"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	"github.com/comptaline/backoffice/internal/payment/domain"
	"github.com/comptaline/backoffice/internal/payment/stripe"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Config    config.Config
	Repo      domain.Repository
	Orders    orderdomain.Service
	Catalog   catalogdomain.Service
	Fulfiller domain.Fulfiller
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	secret    string
	repo      domain.Repository
	orders    orderdomain.Service
	catalog   catalogdomain.Service
	fulfiller domain.Fulfiller
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.service"),
		genID:     p.GenID,
		secret:    p.Config.Stripe.ActiveWebhookSecret(),
		repo:      p.Repo,
		orders:    p.Orders,
		catalog:   p.Catalog,
		fulfiller: p.Fulfiller,
		metrics:   p.Metrics,
	}
}

// HandleWebhook reconciles one Stripe delivery end to end. Stripe retries
// on any non-2xx, so everything past signature verification must converge
// to the same terminal state no matter how many times it runs.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if strings.TrimSpace(s.secret) == "" {
		// A deployment without a webhook secret is an operator error,
		// not a bad request. It must never read as a signature failure.
		s.log.Error("webhook secret not configured")
		return domain.ErrWebhookNotConfigured
	}

	if err := stripe.VerifySignature(payload, signatureHeader, s.secret); err != nil {
		s.metrics.RecordWebhookEvent("unknown", "invalid_signature")
		return domain.ErrInvalidSignature
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		s.metrics.RecordWebhookEvent("unknown", "invalid_payload")
		return domain.ErrInvalidPayload
	}
	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	existing, err := s.repo.FindByEventID(ctx, s.db, event.ID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == domain.EventStatusProcessed {
		log.Info("webhook event replayed, already processed")
		s.metrics.RecordWebhookEvent(event.Type, "replay")
		return domain.ErrEventAlreadyProcessed
	}

	entry := &domain.EventLog{
		ID:         s.genID.Generate(),
		EventID:    event.ID,
		EventType:  event.Type,
		Status:     domain.EventStatusReceived,
		Payload:    datatypes.JSON(payload),
		ReceivedAt: time.Now().UTC(),
	}
	inserted, err := s.repo.InsertIfAbsent(ctx, s.db, entry)
	if err != nil {
		return err
	}
	if !inserted {
		// Another delivery won the insert. Re-read and defer to its state.
		current, err := s.repo.FindByEventID(ctx, s.db, event.ID)
		if err != nil {
			return err
		}
		if current != nil && current.Status == domain.EventStatusProcessed {
			s.metrics.RecordWebhookEvent(event.Type, "replay")
			return domain.ErrEventAlreadyProcessed
		}
		if current != nil {
			entry = current
		}
	}

	if err := s.reconcile(ctx, log, event, entry); err != nil {
		if markErr := s.repo.MarkError(ctx, s.db, entry, err.Error()); markErr != nil {
			log.Error("mark event error failed", zap.Error(markErr))
		}
		s.metrics.RecordWebhookEvent(event.Type, "error")
		return err
	}

	if err := s.repo.MarkProcessed(ctx, s.db, entry); err != nil {
		return err
	}
	s.metrics.RecordWebhookEvent(event.Type, "processed")
	return nil
}

func (s *Service) reconcile(ctx context.Context, log *zap.Logger, event *stripe.Event, entry *domain.EventLog) error {
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
	default:
		// Logged for audit, no side effects.
		log.Info("webhook event type ignored")
		return nil
	}

	session, err := event.Session()
	if err != nil {
		return err
	}
	if session.PaymentStatus != "paid" {
		log.Info("checkout session not paid yet", zap.String("payment_status", session.PaymentStatus))
		return nil
	}

	order, err := s.resolveOrder(ctx, session)
	if err != nil {
		return err
	}
	orderID := order.ID
	entry.OrderID = &orderID
	log = log.With(zap.String("order_id", order.ID.String()), zap.String("order_number", order.OrderNumber))

	if order.StripeEventID == event.ID || order.Status == orderdomain.StatusPaid {
		log.Info("order already settled, skipping")
		return nil
	}

	if err := s.validateItems(ctx, log, order, session); err != nil {
		return err
	}

	if raw := strings.TrimSpace(session.Metadata["userId"]); raw != "" && order.UserID != 0 {
		if id, err := snowflake.ParseString(raw); err == nil && id != order.UserID {
			// The order record stays authoritative; mismatches are flagged, not fatal.
			log.Warn("session user does not match order owner",
				zap.String("session_user_id", raw),
			)
		}
	}

	sessionEmail := strings.TrimSpace(session.CustomerDetails.Email)
	if sessionEmail == "" {
		sessionEmail = strings.TrimSpace(session.CustomerEmail)
	}
	if sessionEmail != "" && order.BillingEmail != "" && !strings.EqualFold(sessionEmail, order.BillingEmail) {
		log.Warn("checkout email does not match order billing email",
			zap.String("session_email", sessionEmail),
		)
	}

	updated, changed, err := s.orders.MarkPaid(ctx, orderdomain.MarkPaidRequest{
		OrderID:         order.ID,
		StripeSessionID: session.ID,
		PaymentIntentID: session.PaymentIntent,
		StripeEventID:   event.ID,
		AmountTotal:     session.AmountTotal,
		Currency:        strings.ToUpper(session.Currency),
		BillingName:     strings.TrimSpace(session.CustomerDetails.Name),
		BillingEmail:    sessionEmail,
		BillingAddress:  joinAddress(session.CustomerDetails.Address.Line1, session.CustomerDetails.Address.Line2),
		BillingCity:     strings.TrimSpace(session.CustomerDetails.Address.City),
		BillingZip:      strings.TrimSpace(session.CustomerDetails.Address.PostalCode),
		BillingCountry:  strings.TrimSpace(session.CustomerDetails.Address.Country),
	})
	if err != nil {
		return err
	}
	if !changed {
		log.Info("order paid by a concurrent delivery")
		return nil
	}

	if err := s.fulfiller.Fulfill(ctx, updated); err != nil {
		return err
	}
	log.Info("order reconciled from webhook")
	return nil
}

// validateItems checks the cart as sold against the catalog. The session
// metadata snapshot is the primary source; the persisted order items are
// the fallback whenever the snapshot is missing or unreadable.
func (s *Service) validateItems(ctx context.Context, log *zap.Logger, order *orderdomain.Order, session *stripe.CheckoutSession) error {
	if items, ok := decodeSessionItems(session.Metadata["items"]); ok {
		for _, item := range items {
			if _, _, err := s.catalog.ResolveActive(ctx, item.productID, item.binaryID); err != nil {
				log.Warn("session item failed catalog validation",
					zap.String("product_id", item.productID.String()),
					zap.Error(err),
				)
				return err
			}
		}
		return nil
	}

	for _, item := range order.Items {
		if _, _, err := s.catalog.ResolveActive(ctx, item.ProductID, item.BinaryID); err != nil {
			log.Warn("order item failed catalog validation",
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

type sessionItem struct {
	productID snowflake.ID
	binaryID  *snowflake.ID
}

// decodeSessionItems reads the metadata snapshot of the cart. Anything
// unreadable drops the whole snapshot so the persisted items take over.
func decodeSessionItems(raw string) ([]sessionItem, bool) {
	items, err := stripe.DecodeItemsMetadata(raw)
	if err != nil {
		return nil, false
	}
	out := make([]sessionItem, 0, len(items))
	for _, item := range items {
		productID, err := snowflake.ParseString(item.ProductID)
		if err != nil {
			return nil, false
		}
		entry := sessionItem{productID: productID}
		if item.BinaryID != "" {
			binaryID, err := snowflake.ParseString(item.BinaryID)
			if err != nil {
				return nil, false
			}
			entry.binaryID = &binaryID
		}
		out = append(out, entry)
	}
	return out, true
}

// resolveOrder walks the identifier chain in priority order: explicit
// metadata first, then client_reference_id, then the stored session id.
func (s *Service) resolveOrder(ctx context.Context, session *stripe.CheckoutSession) (*orderdomain.Order, error) {
	if raw := strings.TrimSpace(session.Metadata["orderId"]); raw != "" {
		if id, err := snowflake.ParseString(raw); err == nil {
			order, err := s.orders.Get(ctx, id)
			if err == nil {
				return order, nil
			}
			if !errors.Is(err, orderdomain.ErrNotFound) {
				return nil, err
			}
		}
	}

	if raw := strings.TrimSpace(session.ClientReferenceID); raw != "" {
		if id, err := snowflake.ParseString(raw); err == nil {
			order, err := s.orders.Get(ctx, id)
			if err == nil {
				return order, nil
			}
			if !errors.Is(err, orderdomain.ErrNotFound) {
				return nil, err
			}
		}
	}

	order, err := s.orders.GetByStripeSessionID(ctx, session.ID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, orderdomain.ErrNotFound) {
		return nil, err
	}
	return nil, domain.ErrOrderNotResolved
}

func (s *Service) ListEvents(ctx context.Context, limit int) ([]domain.EventLog, error) {
	return s.repo.List(ctx, s.db, limit)
}

func joinAddress(line1, line2 string) string {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if line2 == "" {
		return line1
	}
	if line1 == "" {
		return line2
	}
	return line1 + ", " + line2
}
