package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/checkout/domain"
	"github.com/comptaline/backoffice/internal/config"
	downloaddomain "github.com/comptaline/backoffice/internal/download/domain"
	"github.com/comptaline/backoffice/internal/observability/metrics"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	paymentdomain "github.com/comptaline/backoffice/internal/payment/domain"
	"github.com/comptaline/backoffice/internal/payment/stripe"
	"github.com/comptaline/backoffice/internal/pricing"
	promodomain "github.com/comptaline/backoffice/internal/promo/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	emailPattern     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	frenchZipPattern = regexp.MustCompile(`^\d{5}$`)
)

// StripeAPI is the slice of the Stripe client the checkout flow needs.
type StripeAPI interface {
	CreateCheckoutSession(ctx context.Context, req stripe.CheckoutSessionRequest) (*stripe.CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Orders    orderdomain.Service
	Pricing   *pricing.Service
	Promos    promodomain.Service
	Stripe    StripeAPI
	Fulfiller paymentdomain.Fulfiller
	Downloads downloaddomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	cfg       config.Config
	orders    orderdomain.Service
	pricing   *pricing.Service
	promos    promodomain.Service
	stripe    StripeAPI
	fulfiller paymentdomain.Fulfiller
	downloads downloaddomain.Service
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("checkout.service"),
		cfg:       p.Config,
		orders:    p.Orders,
		pricing:   p.Pricing,
		promos:    p.Promos,
		stripe:    p.Stripe,
		fulfiller: p.Fulfiller,
		downloads: p.Downloads,
		metrics:   p.Metrics,
	}
}

func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.SessionResponse, error) {
	if orderID := strings.TrimSpace(req.OrderID); orderID != "" {
		return s.resumeSession(ctx, orderID)
	}

	if vErr := validateRequest(req); vErr != nil {
		s.metrics.RecordCheckoutSession("validation_error")
		return nil, vErr
	}

	items, vErr := parseItems(req.Items)
	if vErr != nil {
		s.metrics.RecordCheckoutSession("validation_error")
		return nil, vErr
	}

	quote, err := s.pricing.Quote(ctx, items)
	if err != nil {
		if mapped := mapPricingError(err); mapped != nil {
			s.metrics.RecordCheckoutSession("validation_error")
			return nil, mapped
		}
		return nil, err
	}

	var promoID *snowflake.ID
	var discount int64
	if code := strings.TrimSpace(req.PromoCode); code != "" {
		categories := make([]string, 0, len(quote.Lines))
		for _, line := range quote.Lines {
			categories = append(categories, line.Category)
		}
		promo, amount, err := s.promos.Validate(ctx, code, categories, quote.SubtotalCents)
		if err != nil {
			if mapped := mapPromoError(err); mapped != nil {
				s.metrics.RecordCheckoutSession("validation_error")
				return nil, mapped
			}
			return nil, err
		}
		id := promo.ID
		promoID = &id
		discount = amount
	}
	payable := quote.SubtotalCents - discount

	order := &orderdomain.Order{
		OrderType:        orderdomain.Type(strings.TrimSpace(req.OrderType)),
		Brand:            strings.TrimSpace(req.Brand),
		Status:           orderdomain.StatusPending,
		Currency:         quote.Currency,
		TotalCents:       quote.SubtotalCents,
		DiscountCents:    discount,
		PromoCodeID:      promoID,
		BillingName:      strings.TrimSpace(req.Billing.Name),
		BillingEmail:     strings.ToLower(strings.TrimSpace(req.Billing.Email)),
		BillingAddress:   strings.TrimSpace(req.Billing.Address),
		BillingCity:      strings.TrimSpace(req.Billing.City),
		BillingZip:       strings.TrimSpace(req.Billing.Zip),
		BillingCountry:   strings.ToUpper(strings.TrimSpace(req.Billing.Country)),
		BillingVATNumber: strings.TrimSpace(req.Billing.VATNumber),
		AcceptedTerms:    req.AcceptTerms,
		AcceptedLicense:  req.AcceptLicense,
	}
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		if id, err := snowflake.ParseString(raw); err == nil {
			order.UserID = id
		}
	}

	orderItems := make([]orderdomain.OrderItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		orderItems = append(orderItems, orderdomain.OrderItem{
			ProductID:       line.ProductID,
			BinaryID:        line.BinaryID,
			Platform:        line.Platform,
			ProductName:     line.ProductName,
			ProductVersion:  line.Version,
			UnitAmountCents: line.UnitAmountCents,
			Quantity:        line.Quantity,
		})
	}

	created, err := s.orders.Create(ctx, order, orderItems)
	if err != nil {
		if errors.Is(err, orderdomain.ErrBrandRequired) {
			s.metrics.RecordCheckoutSession("validation_error")
			vErr := &domain.ValidationErrors{}
			vErr.Add("brand", "brand_required", "La marque est obligatoire pour un abonnement.")
			return nil, vErr
		}
		if errors.Is(err, orderdomain.ErrInvalidType) {
			s.metrics.RecordCheckoutSession("validation_error")
			vErr := &domain.ValidationErrors{}
			vErr.Add("order_type", "invalid_order_type", "Le type de commande est invalide.")
			return nil, vErr
		}
		return nil, err
	}
	log := s.log.With(
		zap.String("order_id", created.ID.String()),
		zap.String("order_number", created.OrderNumber),
	)

	if payable == 0 {
		return s.settleWithoutPayment(ctx, log, created)
	}

	return s.openStripeSession(ctx, log, created, "")
}

// resumeSession serves a retried checkout for an order that already
// exists. An open processor session is reused as is; a stale or missing
// one is replaced on the same order, so no duplicate PENDING order and
// no duplicate session can come out of a retry.
func (s *Service) resumeSession(ctx context.Context, rawOrderID string) (*domain.SessionResponse, error) {
	orderID, err := snowflake.ParseString(rawOrderID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	log := s.log.With(
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)

	if order.Status == orderdomain.StatusPaid {
		successURL := s.cfg.FrontendBaseURL + "/paiement/succes?order_id=" + order.ID.String()
		return &domain.SessionResponse{
			OrderID:       order.ID.String(),
			OrderNumber:   order.OrderNumber,
			Status:        domain.SessionStatusPaid,
			AmountCents:   order.TotalPaidCents,
			DiscountCents: order.DiscountCents,
			URL:           successURL,
			SuccessURL:    successURL,
		}, nil
	}
	if order.Status != orderdomain.StatusPending {
		return nil, domain.ErrSessionNotFound
	}

	if order.StripeSessionID != "" {
		session, err := s.stripe.RetrieveCheckoutSession(ctx, order.StripeSessionID)
		if err == nil && session.Status == "open" && session.URL != "" {
			s.metrics.RecordCheckoutSession("reused")
			log.Info("existing checkout session reused", zap.String("stripe_session_id", session.ID))
			return &domain.SessionResponse{
				OrderID:       order.ID.String(),
				OrderNumber:   order.OrderNumber,
				Status:        domain.SessionStatusPendingPayment,
				AmountCents:   order.TotalCents - order.DiscountCents,
				DiscountCents: order.DiscountCents,
				URL:           session.URL,
				CheckoutURL:   session.URL,
			}, nil
		}
		if err != nil {
			log.Warn("stale checkout session lookup failed", zap.Error(err))
		}
	}
	return s.openStripeSession(ctx, log, order, order.StripeSessionID)
}

// openStripeSession opens a hosted checkout page for an order. The
// idempotency key is derived from the order (and the session it
// replaces, if any), so identical retries collapse on Stripe's side.
func (s *Service) openStripeSession(ctx context.Context, log *zap.Logger, order *orderdomain.Order, staleSessionID string) (*domain.SessionResponse, error) {
	key := "order:" + order.ID.String()
	if staleSessionID != "" {
		key += ":after:" + staleSessionID
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, stripe.CheckoutSessionRequest{
		OrderID:           order.ID.String(),
		OrderNumber:       order.OrderNumber,
		CustomerEmail:     order.BillingEmail,
		Currency:          order.Currency,
		SuccessURL:        s.cfg.FrontendBaseURL + "/paiement/succes?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         s.cfg.FrontendBaseURL + "/paiement/annule",
		ClientReferenceID: order.ID.String(),
		Items:             stripeLineItems(order),
		Metadata:          sessionMetadata(order),
		DiscountCents:     order.DiscountCents,
		IdempotencyKey:    key,
	})
	if err != nil {
		s.metrics.RecordCheckoutSession("stripe_error")
		log.Error("stripe checkout session failed", zap.Error(err))
		return nil, err
	}

	if err := s.orders.AttachStripeSession(ctx, order.ID, session.ID); err != nil {
		return nil, err
	}
	s.metrics.RecordCheckoutSession("created")
	log.Info("checkout session created", zap.String("stripe_session_id", session.ID))

	return &domain.SessionResponse{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		Status:        domain.SessionStatusPendingPayment,
		AmountCents:   order.TotalCents - order.DiscountCents,
		DiscountCents: order.DiscountCents,
		URL:           session.URL,
		CheckoutURL:   session.URL,
	}, nil
}

// settleWithoutPayment closes a fully discounted cart. There is no
// processor involved, so the order is paid on the spot and fulfilled.
func (s *Service) settleWithoutPayment(ctx context.Context, log *zap.Logger, order *orderdomain.Order) (*domain.SessionResponse, error) {
	updated, changed, err := s.orders.MarkPaid(ctx, orderdomain.MarkPaidRequest{
		OrderID:     order.ID,
		AmountTotal: 0,
		Currency:    order.Currency,
	})
	if err != nil {
		return nil, err
	}
	if changed {
		updated.Items = order.Items
		if err := s.fulfiller.Fulfill(ctx, updated); err != nil {
			return nil, err
		}
	}
	s.metrics.RecordCheckoutSession("zero_payable")
	log.Info("zero-payable order settled without processor")

	successURL := s.cfg.FrontendBaseURL + "/paiement/succes?order_id=" + updated.ID.String()
	return &domain.SessionResponse{
		OrderID:       updated.ID.String(),
		OrderNumber:   updated.OrderNumber,
		Status:        domain.SessionStatusPaid,
		AmountCents:   0,
		DiscountCents: order.DiscountCents,
		URL:           successURL,
		SuccessURL:    successURL,
	}, nil
}

// Confirm is the read side of the success page poll. It never calls the
// processor and never mutates the order: payment lands through the
// webhook, and the poll only reports whether it has landed yet.
func (s *Service) Confirm(ctx context.Context, sessionID string) (*domain.ConfirmationResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}

	order, err := s.orders.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, orderdomain.ErrNotFound) {
			// The redirect can race the session being attached to its
			// order; the client keeps polling.
			return &domain.ConfirmationResponse{Status: domain.ConfirmationPending}, nil
		}
		return nil, err
	}
	if order.Status != orderdomain.StatusPaid {
		return &domain.ConfirmationResponse{Status: domain.ConfirmationPending}, nil
	}
	return s.paidResponse(ctx, order), nil
}

// ConfirmByOrder serves the zero-payable success page, whose URL carries
// an order id instead of a processor session id. A missing or still
// pending order reads as pending so the client keeps polling.
func (s *Service) ConfirmByOrder(ctx context.Context, orderID snowflake.ID) (*domain.ConfirmationResponse, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderdomain.ErrNotFound) {
			return &domain.ConfirmationResponse{Status: domain.ConfirmationPending}, nil
		}
		return nil, err
	}
	if order.Status != orderdomain.StatusPaid {
		return &domain.ConfirmationResponse{Status: domain.ConfirmationPending}, nil
	}
	return s.paidResponse(ctx, order), nil
}

func (s *Service) paidResponse(ctx context.Context, order *orderdomain.Order) *domain.ConfirmationResponse {
	resp := &domain.ConfirmationResponse{
		Status:        domain.ConfirmationPaid,
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		DownloadToken: order.DownloadToken,
	}
	links, err := s.downloads.ListByOrder(ctx, order.ID)
	if err != nil {
		s.log.Warn("download links lookup failed for confirmation",
			zap.String("order_id", order.ID.String()), zap.Error(err))
		return resp
	}
	now := time.Now().UTC()
	for i := range links {
		l := &links[i]
		if l.Active && now.Before(l.ExpiresAt) && l.Count < l.MaxCount {
			resp.DownloadURL = fmt.Sprintf("/api/downloads/%s", l.Token)
			break
		}
	}
	return resp
}

func validateRequest(req domain.CreateSessionRequest) *domain.ValidationErrors {
	vErr := &domain.ValidationErrors{}

	if len(req.Items) == 0 {
		vErr.Add("items", "empty_cart", "Le panier est vide.")
	}
	if strings.TrimSpace(req.Billing.Name) == "" {
		vErr.Add("billing.name", "required", "Le nom est obligatoire.")
	}
	email := strings.TrimSpace(req.Billing.Email)
	if email == "" {
		vErr.Add("billing.email", "required", "L'adresse e-mail est obligatoire.")
	} else if !emailPattern.MatchString(email) {
		vErr.Add("billing.email", "invalid_email", "L'adresse e-mail est invalide.")
	}
	if strings.TrimSpace(req.Billing.Address) == "" {
		vErr.Add("billing.address", "required", "L'adresse est obligatoire.")
	}
	if strings.TrimSpace(req.Billing.City) == "" {
		vErr.Add("billing.city", "required", "La ville est obligatoire.")
	}
	zip := strings.TrimSpace(req.Billing.Zip)
	country := strings.ToUpper(strings.TrimSpace(req.Billing.Country))
	switch {
	case zip == "":
		vErr.Add("billing.zip", "required", "Le code postal est obligatoire.")
	case (country == "" || country == "FR") && !frenchZipPattern.MatchString(zip):
		vErr.Add("billing.zip", "invalid_zip", "Le code postal est invalide.")
	}
	if country == "" {
		vErr.Add("billing.country", "required", "Le pays est obligatoire.")
	}
	if !req.AcceptTerms {
		vErr.Add("accept_terms", "required", "Vous devez accepter les conditions générales de vente.")
	}
	if !req.AcceptLicense {
		vErr.Add("accept_license", "required", "Vous devez accepter le contrat de licence.")
	}
	if orderdomain.Type(strings.TrimSpace(req.OrderType)) == orderdomain.TypeSubscription &&
		strings.TrimSpace(req.Brand) == "" {
		vErr.Add("brand", "brand_required", "La marque est obligatoire pour un abonnement.")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func parseItems(items []domain.ItemRequest) ([]pricing.CartItem, *domain.ValidationErrors) {
	parsed := make([]pricing.CartItem, 0, len(items))
	for _, item := range items {
		productID, err := snowflake.ParseString(strings.TrimSpace(item.ProductID))
		if err != nil {
			vErr := &domain.ValidationErrors{}
			vErr.Add("items", "invalid_product_id", "Un des produits du panier est invalide.")
			return nil, vErr
		}
		cartItem := pricing.CartItem{ProductID: productID, Quantity: item.Quantity}
		if raw := strings.TrimSpace(item.BinaryID); raw != "" {
			binaryID, err := snowflake.ParseString(raw)
			if err != nil {
				vErr := &domain.ValidationErrors{}
				vErr.Add("items", "invalid_binary_id", "Un des fichiers du panier est invalide.")
				return nil, vErr
			}
			cartItem.BinaryID = &binaryID
		}
		parsed = append(parsed, cartItem)
	}
	return parsed, nil
}

func mapPricingError(err error) *domain.ValidationErrors {
	vErr := &domain.ValidationErrors{}
	switch {
	case errors.Is(err, pricing.ErrEmptyCart):
		vErr.Add("items", "empty_cart", "Le panier est vide.")
	case errors.Is(err, pricing.ErrInvalidQuantity):
		vErr.Add("items", "invalid_quantity", "La quantité demandée est invalide.")
	case errors.Is(err, pricing.ErrUnknownProduct):
		vErr.Add("items", "unknown_product", "Un des produits du panier n'existe pas.")
	case errors.Is(err, pricing.ErrInactiveProduct):
		vErr.Add("items", "inactive_product", "Un des produits du panier n'est plus disponible.")
	case errors.Is(err, pricing.ErrUnknownBinary):
		vErr.Add("items", "unknown_binary", "Un des fichiers du panier n'est plus disponible.")
	default:
		return nil
	}
	return vErr
}

func mapPromoError(err error) *domain.ValidationErrors {
	vErr := &domain.ValidationErrors{}
	switch {
	case errors.Is(err, promodomain.ErrNotFound), errors.Is(err, promodomain.ErrInvalidCode):
		vErr.Add("promo_code", "unknown_code", "Ce code promo est inconnu.")
	case errors.Is(err, promodomain.ErrInactive):
		vErr.Add("promo_code", "inactive_code", "Ce code promo n'est plus actif.")
	case errors.Is(err, promodomain.ErrExpired):
		vErr.Add("promo_code", "expired_code", "Ce code promo a expiré.")
	case errors.Is(err, promodomain.ErrExhausted):
		vErr.Add("promo_code", "exhausted_code", "Ce code promo a atteint son nombre maximal d'utilisations.")
	case errors.Is(err, promodomain.ErrWrongCategory):
		vErr.Add("promo_code", "wrong_category", "Ce code promo ne s'applique pas aux produits du panier.")
	default:
		return nil
	}
	return vErr
}

// stripeLineItems builds the hosted checkout lines from the persisted
// order. Stripe has no ad-hoc negative line, so a discounted cart
// collapses into a single line at the payable amount.
func stripeLineItems(order *orderdomain.Order) []stripe.LineItem {
	if order.DiscountCents > 0 {
		return []stripe.LineItem{{
			Name:            "Commande " + order.OrderNumber,
			Description:     "Remise appliquée",
			UnitAmountCents: order.TotalCents - order.DiscountCents,
			Quantity:        1,
		}}
	}
	items := make([]stripe.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		name := item.ProductName
		if item.ProductVersion != "" {
			name += " " + item.ProductVersion
		}
		items = append(items, stripe.LineItem{
			Name:            name,
			UnitAmountCents: item.UnitAmountCents,
			Quantity:        item.Quantity,
		})
	}
	return items
}

// sessionMetadata snapshots the order onto the processor session, so the
// webhook can reconcile the sale from the session alone even when the
// persisted rows have drifted.
func sessionMetadata(order *orderdomain.Order) map[string]string {
	meta := map[string]string{
		"acceptedTerms":   strconv.FormatBool(order.AcceptedTerms),
		"acceptedLicense": strconv.FormatBool(order.AcceptedLicense),
		"billingName":     order.BillingName,
		"billingEmail":    order.BillingEmail,
		"billingCountry":  order.BillingCountry,
	}
	if order.UserID != 0 {
		meta["userId"] = order.UserID.String()
	}
	if order.PromoCodeID != nil {
		meta["promoCodeId"] = order.PromoCodeID.String()
		meta["discountCents"] = strconv.FormatInt(order.DiscountCents, 10)
	}
	items := make([]stripe.MetadataItem, 0, len(order.Items))
	for _, item := range order.Items {
		entry := stripe.MetadataItem{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
		}
		if item.BinaryID != nil {
			entry.BinaryID = item.BinaryID.String()
		}
		items = append(items, entry)
	}
	if encoded := stripe.EncodeItemsMetadata(items); encoded != "" {
		meta["items"] = encoded
	}
	return meta
}
