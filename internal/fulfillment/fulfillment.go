package fulfillment

import (
	"context"
	"fmt"

	"github.com/comptaline/backoffice/internal/config"
	downloaddomain "github.com/comptaline/backoffice/internal/download/domain"
	invoicedomain "github.com/comptaline/backoffice/internal/invoice/domain"
	"github.com/comptaline/backoffice/internal/observability/metrics"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	paymentdomain "github.com/comptaline/backoffice/internal/payment/domain"
	promodomain "github.com/comptaline/backoffice/internal/promo/domain"
	"github.com/comptaline/backoffice/internal/providers/email"
	"github.com/comptaline/backoffice/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Downloads downloaddomain.Service
	Invoices  invoicedomain.Service
	Promos    promodomain.Service
	Email     email.Provider
	Metrics   *metrics.Metrics `optional:"true"`
}

// Service runs the side effects of a newly paid order. Download links and
// the invoice are idempotent on their own; the promo counter and the
// emails only run here, on the first PENDING -> PAID transition.
type Service struct {
	log       *zap.Logger
	cfg       config.Config
	downloads downloaddomain.Service
	invoices  invoicedomain.Service
	promos    promodomain.Service
	email     email.Provider
	metrics   *metrics.Metrics
}

func New(p Params) paymentdomain.Fulfiller {
	return &Service{
		log:       p.Log.Named("fulfillment.service"),
		cfg:       p.Config,
		downloads: p.Downloads,
		invoices:  p.Invoices,
		promos:    p.Promos,
		email:     p.Email,
		metrics:   p.Metrics,
	}
}

func (s *Service) Fulfill(ctx context.Context, order *orderdomain.Order) error {
	log := s.log.With(
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)

	links, err := s.downloads.EnsureLinks(ctx, order)
	if err != nil {
		return fmt.Errorf("ensure download links: %w", err)
	}

	invoice, err := s.invoices.EnsureForOrder(ctx, order)
	if err != nil {
		return fmt.Errorf("ensure invoice: %w", err)
	}

	if order.PromoCodeID != nil {
		if err := s.promos.RecordUseByID(ctx, *order.PromoCodeID); err != nil {
			// The payment settled; a failed counter bump is not worth a retry
			// of the whole event.
			log.Warn("promo redemption not recorded", zap.Error(err))
		}
	}

	s.sendOrderConfirmation(ctx, log, order, links)
	s.sendInvoiceEmail(ctx, log, order, invoice)

	log.Info("order fulfilled",
		zap.Int("download_links", len(links)),
		zap.String("invoice_number", invoice.Number),
	)
	return nil
}

type confirmationItem struct {
	Label    string
	Quantity int
	Amount   string
}

type confirmationDownload struct {
	Label string
	URL   string
}

func (s *Service) sendOrderConfirmation(ctx context.Context, log *zap.Logger, order *orderdomain.Order, links []downloaddomain.DownloadLink) {
	if order.BillingEmail == "" {
		log.Warn("order has no billing email, confirmation skipped")
		return
	}

	items := make([]confirmationItem, 0, len(order.Items))
	labelByItem := make(map[int64]string, len(order.Items))
	for _, item := range order.Items {
		label := item.ProductName
		if item.ProductVersion != "" {
			label += " " + item.ProductVersion
		}
		labelByItem[int64(item.ID)] = label
		items = append(items, confirmationItem{
			Label:    label,
			Quantity: item.Quantity,
			Amount:   pdf.FormatEuros(item.UnitAmountCents * int64(item.Quantity)),
		})
	}

	downloads := make([]confirmationDownload, 0, len(links))
	for _, link := range links {
		label := labelByItem[int64(link.OrderItemID)]
		if label == "" {
			label = "Téléchargement"
		}
		downloads = append(downloads, confirmationDownload{
			Label: label,
			URL:   s.cfg.FrontendBaseURL + "/api/downloads/" + link.Token,
		})
	}

	discount := ""
	if order.DiscountCents > 0 {
		discount = pdf.FormatEuros(order.DiscountCents)
	}

	data := map[string]any{
		"OrderNumber":      order.OrderNumber,
		"BillingName":      order.BillingName,
		"Items":            items,
		"Discount":         discount,
		"Total":            pdf.FormatEuros(order.TotalPaidCents),
		"Downloads":        downloads,
		"DownloadTTLHours": s.cfg.DownloadLinkTTLHours,
	}
	subject := "Confirmation de votre commande " + order.OrderNumber

	if err := s.email.SendTemplate(ctx, []string{order.BillingEmail}, "order_confirmation", subject, data); err != nil {
		log.Warn("order confirmation email failed", zap.Error(err))
		s.metrics.RecordEmail("order_confirmation", "error")
		return
	}
	s.metrics.RecordEmail("order_confirmation", "sent")
}

func (s *Service) sendInvoiceEmail(ctx context.Context, log *zap.Logger, order *orderdomain.Order, invoice *invoicedomain.Invoice) {
	if order.BillingEmail == "" {
		return
	}

	data := map[string]any{
		"InvoiceNumber": invoice.Number,
		"OrderNumber":   order.OrderNumber,
		"BillingName":   order.BillingName,
		"Amount":        pdf.FormatEuros(invoice.AmountCents),
		"IssuedAt":      invoice.IssuedAt.Format("02/01/2006"),
	}
	subject := "Votre facture " + invoice.Number

	if err := s.email.SendTemplate(ctx, []string{order.BillingEmail}, "invoice_issued", subject, data); err != nil {
		log.Warn("invoice email failed", zap.Error(err))
		s.metrics.RecordEmail("invoice_issued", "error")
		return
	}
	s.metrics.RecordEmail("invoice_issued", "sent")
}

var Module = fx.Module("fulfillment.service",
	fx.Provide(New),
)
