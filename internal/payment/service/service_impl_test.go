package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	catalogrepo "github.com/comptaline/backoffice/internal/catalog/repository"
	catalogsvc "github.com/comptaline/backoffice/internal/catalog/service"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	orderrepo "github.com/comptaline/backoffice/internal/order/repository"
	ordersvc "github.com/comptaline/backoffice/internal/order/service"
	"github.com/comptaline/backoffice/internal/payment/domain"
	"github.com/comptaline/backoffice/internal/payment/repository"
	"github.com/comptaline/backoffice/internal/payment/stripe"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "whsec_test"

type fakeFulfiller struct {
	calls  int
	lastID snowflake.ID
	err    error
}

func (f *fakeFulfiller) Fulfill(ctx context.Context, order *orderdomain.Order) error {
	f.calls++
	f.lastID = order.ID
	return f.err
}

type fixture struct {
	svc       *Service
	db        *gorm.DB
	orders    orderdomain.Service
	catalog   catalogdomain.Service
	fulfiller *fakeFulfiller
	node      *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:payment_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&catalogdomain.Product{},
		&catalogdomain.ProductBinary{},
		&domain.EventLog{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()

	orders := ordersvc.New(ordersvc.Params{DB: db, Log: log, GenID: node, Repo: orderrepo.Provide()})
	catalog := catalogsvc.New(catalogsvc.Params{DB: db, Log: log, GenID: node, Repo: catalogrepo.Provide()})
	fulfiller := &fakeFulfiller{}

	return &fixture{
		svc: &Service{
			db:        db,
			log:       log,
			genID:     node,
			secret:    testSecret,
			repo:      repository.Provide(),
			orders:    orders,
			catalog:   catalog,
			fulfiller: fulfiller,
		},
		db:        db,
		orders:    orders,
		catalog:   catalog,
		fulfiller: fulfiller,
		node:      node,
	}
}

func (f *fixture) createOrder(t *testing.T, productActive bool) *orderdomain.Order {
	t.Helper()
	ctx := context.Background()

	product, err := f.catalog.Create(ctx, catalogdomain.CreateRequest{
		Code:            fmt.Sprintf("COMPTA-%d", f.node.Generate()),
		Name:            "Compta Pro",
		UnitAmountCents: 14900,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if !productActive {
		if _, err := f.catalog.Archive(ctx, product.ID.String()); err != nil {
			t.Fatalf("archive product: %v", err)
		}
	}

	order, err := f.orders.Create(ctx, &orderdomain.Order{
		UserID:          f.node.Generate(),
		OrderType:       orderdomain.TypeProduct,
		TotalCents:      14900,
		BillingEmail:    "client@exemple.fr",
		AcceptedTerms:   true,
		AcceptedLicense: true,
	}, []orderdomain.OrderItem{{
		ProductID:       product.ID,
		ProductName:     product.Name,
		UnitAmountCents: 14900,
		Quantity:        1,
	}})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func signedHeader(payload []byte) string {
	timestamp := time.Now().Unix()
	signed := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(testSecret))
	_, _ = mac.Write([]byte(signed))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func completedPayload(eventID, orderID, clientRef, sessionID string) []byte {
	return completedPayloadWithMetadata(eventID, clientRef, sessionID, map[string]string{"orderId": orderID})
}

func completedPayloadWithMetadata(eventID, clientRef, sessionID string, metadata map[string]string) []byte {
	meta, _ := json.Marshal(metadata)
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"created": 1756700000,
		"data": {"object": {
			"id": %q,
			"client_reference_id": %q,
			"payment_intent": "pi_1",
			"payment_status": "paid",
			"status": "complete",
			"amount_total": 14900,
			"currency": "eur",
			"customer_details": {
				"email": "client@exemple.fr",
				"name": "Jean Dupont",
				"address": {"line1": "1 rue de la Paix", "postal_code": "75002", "city": "Paris", "country": "FR"}
			},
			"metadata": %s
		}}
	}`, eventID, sessionID, clientRef, meta))
}

func TestHandleWebhookMarksOrderPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, true)

	payload := completedPayload("evt_1", order.ID.String(), "", "cs_test_1")
	if err := f.svc.HandleWebhook(ctx, payload, signedHeader(payload)); err != nil {
		t.Fatalf("handle webhook: %v", err)
	}

	got, err := f.orders.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.Status != orderdomain.StatusPaid {
		t.Fatalf("want PAID, got %s", got.Status)
	}
	if got.StripeEventID != "evt_1" || got.StripeSessionID != "cs_test_1" {
		t.Fatalf("processor facts not recorded: %+v", got)
	}
	if got.TotalPaidCents != 14900 {
		t.Fatalf("want total paid 14900, got %d", got.TotalPaidCents)
	}
	if got.BillingName != "Jean Dupont" || got.BillingCity != "Paris" {
		t.Fatalf("billing snapshot missing: %+v", got)
	}
	if f.fulfiller.calls != 1 {
		t.Fatalf("want 1 fulfillment, got %d", f.fulfiller.calls)
	}
}

func TestHandleWebhookReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, true)

	payload := completedPayload("evt_replay", order.ID.String(), "", "cs_test_2")
	if err := f.svc.HandleWebhook(ctx, payload, signedHeader(payload)); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := f.svc.HandleWebhook(ctx, payload, signedHeader(payload)); !errors.Is(err, domain.ErrEventAlreadyProcessed) {
		t.Fatalf("want already processed, got %v", err)
	}
	if f.fulfiller.calls != 1 {
		t.Fatalf("fulfillment ran %d times", f.fulfiller.calls)
	}

	// A different event for an already-paid order settles without effects.
	payload2 := completedPayload("evt_second", order.ID.String(), "", "cs_test_2")
	if err := f.svc.HandleWebhook(ctx, payload2, signedHeader(payload2)); err != nil {
		t.Fatalf("second event: %v", err)
	}
	if f.fulfiller.calls != 1 {
		t.Fatalf("fulfillment re-ran on settled order: %d", f.fulfiller.calls)
	}
}

func TestHandleWebhookResolverChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No metadata: falls back to client_reference_id.
	order := f.createOrder(t, true)
	payload := completedPayload("evt_ref", "", order.ID.String(), "cs_test_3")
	if err := f.svc.HandleWebhook(ctx, payload, signedHeader(payload)); err != nil {
		t.Fatalf("client_reference_id resolution: %v", err)
	}
	got, _ := f.orders.Get(ctx, order.ID)
	if got.Status != orderdomain.StatusPaid {
		t.Fatalf("want PAID via client_reference_id, got %s", got.Status)
	}

	// Neither metadata nor reference: falls back to the stored session id.
	order2 := f.createOrder(t, true)
	if err := f.db.Model(&orderdomain.Order{}).Where("id = ?", order2.ID).
		Update("stripe_session_id", "cs_test_4").Error; err != nil {
		t.Fatalf("seed session id: %v", err)
	}
	payload2 := completedPayload("evt_sess", "", "", "cs_test_4")
	if err := f.svc.HandleWebhook(ctx, payload2, signedHeader(payload2)); err != nil {
		t.Fatalf("session id resolution: %v", err)
	}
	got2, _ := f.orders.Get(ctx, order2.ID)
	if got2.Status != orderdomain.StatusPaid {
		t.Fatalf("want PAID via session id, got %s", got2.Status)
	}

	// Nothing resolves: the event lands in ERROR.
	payload3 := completedPayload("evt_lost", "", "", "cs_unknown")
	if err := f.svc.HandleWebhook(ctx, payload3, signedHeader(payload3)); !errors.Is(err, domain.ErrOrderNotResolved) {
		t.Fatalf("want order not resolved, got %v", err)
	}
	entry, err := f.svc.repo.FindByEventID(ctx, f.db, "evt_lost")
	if err != nil || entry == nil {
		t.Fatalf("event log missing: %v", err)
	}
	if entry.Status != domain.EventStatusError {
		t.Fatalf("want ERROR status, got %s", entry.Status)
	}
}

func TestHandleWebhookMetadataOrderWinsOverClientReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two distinct existing orders: metadata names one, the reference the
	// other. The metadata order settles, the referenced one stays pending.
	metaOrder := f.createOrder(t, true)
	refOrder := f.createOrder(t, true)

	payload := completedPayload("evt_priority", metaOrder.ID.String(), refOrder.ID.String(), "cs_test_10")
	if err := f.svc.HandleWebhook(ctx, payload, signedHeader(payload)); err != nil {
		t.Fatalf("handle webhook: %v", err)
	}

	gotMeta, _ := f.orders.Get(ctx, metaOrder.ID)
	if gotMeta.Status != orderdomain.StatusPaid {
		t.Fatalf("metadata order should be PAID, got %s", gotMeta.Status)
	}
	gotRef, _ := f.orders.Get(ctx, refOrder.ID)
	if gotRef.Status != orderdomain.StatusPending {
		t.Fatalf("referenced order should stay PENDING, got %s", gotRef.Status)
	}
	if f.fulfiller.calls != 1 || f.fulfiller.lastID != metaOrder.ID {
		t.Fatalf("fulfillment went to the wrong order: %+v", f.fulfiller)
	}
}

func TestHandleWebhookValidatesItemsFromMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, true)

	archived, err := f.catalog.Create(ctx, catalogdomain.CreateRequest{
		Code:            fmt.Sprintf("COMPTA-%d", f.node.Generate()),
		Name:            "Compta Retirée",
		UnitAmountCents: 9900,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := f.catalog.Archive(ctx, archived.ID.String()); err != nil {
		t.Fatalf("archive product: %v", err)
	}

	// The session snapshot names a deactivated product: the snapshot wins
	// over the persisted items, so the delivery aborts.
	payload := completedPayloadWithMetadata("evt_meta_items", "", "cs_test_11", map[string]string{
		"orderId": order.ID.String(),
		"items": stripe.EncodeItemsMetadata([]stripe.MetadataItem{
			{ProductID: archived.ID.String(), Quantity: 1},
		}),
	})
	if err := f.svc.HandleWebhook(ctx, payload, signedHeader(payload)); !errors.Is(err, catalogdomain.ErrInactiveProduct) {
		t.Fatalf("want inactive product from metadata items, got %v", err)
	}
	got, _ := f.orders.Get(ctx, order.ID)
	if got.Status != orderdomain.StatusPending {
		t.Fatalf("order should stay PENDING, got %s", got.Status)
	}

	// An unreadable snapshot falls back to the persisted items, and a
	// mismatched owner only warns: the delivery settles.
	payload2 := completedPayloadWithMetadata("evt_meta_fallback", "", "cs_test_11", map[string]string{
		"orderId": order.ID.String(),
		"items":   "not-json",
		"userId":  "424242",
	})
	if err := f.svc.HandleWebhook(ctx, payload2, signedHeader(payload2)); err != nil {
		t.Fatalf("fallback delivery: %v", err)
	}
	got, _ = f.orders.Get(ctx, order.ID)
	if got.Status != orderdomain.StatusPaid {
		t.Fatalf("want PAID via persisted items, got %s", got.Status)
	}
}

func TestHandleWebhookInactiveProductAborts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, false)

	payload := completedPayload("evt_inactive", order.ID.String(), "", "cs_test_5")
	err := f.svc.HandleWebhook(ctx, payload, signedHeader(payload))
	if !errors.Is(err, catalogdomain.ErrInactiveProduct) {
		t.Fatalf("want inactive product, got %v", err)
	}

	got, _ := f.orders.Get(ctx, order.ID)
	if got.Status != orderdomain.StatusPending {
		t.Fatalf("order should stay PENDING, got %s", got.Status)
	}
	if f.fulfiller.calls != 0 {
		t.Fatalf("fulfillment must not run, got %d", f.fulfiller.calls)
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	payload := completedPayload("evt_bad", "1", "", "cs_bad")
	err := f.svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("want invalid signature, got %v", err)
	}
}

func TestHandleWebhookWithoutSecretIsServerFault(t *testing.T) {
	f := newFixture(t)
	f.svc.secret = ""

	payload := completedPayload("evt_cfg", "1", "", "cs_cfg")
	err := f.svc.HandleWebhook(context.Background(), payload, signedHeader(payload))
	if !errors.Is(err, domain.ErrWebhookNotConfigured) {
		t.Fatalf("want webhook not configured, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatal("missing secret must not read as a signature failure")
	}
}

func TestHandleWebhookIgnoresOtherEventTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload := []byte(`{"id":"evt_other","type":"invoice.created","data":{"object":{"id":"in_1"}}}`)
	if err := f.svc.HandleWebhook(ctx, payload, signedHeader(payload)); err != nil {
		t.Fatalf("ignored event should succeed: %v", err)
	}
	entry, err := f.svc.repo.FindByEventID(ctx, f.db, "evt_other")
	if err != nil || entry == nil {
		t.Fatalf("event log missing: %v", err)
	}
	if entry.Status != domain.EventStatusProcessed {
		t.Fatalf("want PROCESSED, got %s", entry.Status)
	}
	if f.fulfiller.calls != 0 {
		t.Fatalf("no fulfillment expected, got %d", f.fulfiller.calls)
	}
}
