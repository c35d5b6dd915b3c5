package server

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	articledomain "github.com/comptaline/backoffice/internal/article/domain"
	articlerepo "github.com/comptaline/backoffice/internal/article/repository"
	articlesvc "github.com/comptaline/backoffice/internal/article/service"
	authdomain "github.com/comptaline/backoffice/internal/auth/domain"
	authrepo "github.com/comptaline/backoffice/internal/auth/repository"
	authsvc "github.com/comptaline/backoffice/internal/auth/service"
	"github.com/comptaline/backoffice/internal/authorization"
	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	catalogrepo "github.com/comptaline/backoffice/internal/catalog/repository"
	catalogsvc "github.com/comptaline/backoffice/internal/catalog/service"
	checkoutsvc "github.com/comptaline/backoffice/internal/checkout/service"
	"github.com/comptaline/backoffice/internal/config"
	downloaddomain "github.com/comptaline/backoffice/internal/download/domain"
	downloadrepo "github.com/comptaline/backoffice/internal/download/repository"
	downloadsvc "github.com/comptaline/backoffice/internal/download/service"
	"github.com/comptaline/backoffice/internal/fulfillment"
	invoicedomain "github.com/comptaline/backoffice/internal/invoice/domain"
	invoicerepo "github.com/comptaline/backoffice/internal/invoice/repository"
	invoicesvc "github.com/comptaline/backoffice/internal/invoice/service"
	newsletterdomain "github.com/comptaline/backoffice/internal/newsletter/domain"
	newsletterrepo "github.com/comptaline/backoffice/internal/newsletter/repository"
	newslettersvc "github.com/comptaline/backoffice/internal/newsletter/service"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	orderrepo "github.com/comptaline/backoffice/internal/order/repository"
	ordersvc "github.com/comptaline/backoffice/internal/order/service"
	pagedomain "github.com/comptaline/backoffice/internal/page/domain"
	pagerepo "github.com/comptaline/backoffice/internal/page/repository"
	pagesvc "github.com/comptaline/backoffice/internal/page/service"
	paymentdomain "github.com/comptaline/backoffice/internal/payment/domain"
	paymentrepo "github.com/comptaline/backoffice/internal/payment/repository"
	paymentsvc "github.com/comptaline/backoffice/internal/payment/service"
	"github.com/comptaline/backoffice/internal/payment/stripe"
	"github.com/comptaline/backoffice/internal/pricing"
	promodomain "github.com/comptaline/backoffice/internal/promo/domain"
	promorepo "github.com/comptaline/backoffice/internal/promo/repository"
	promosvc "github.com/comptaline/backoffice/internal/promo/service"
	email "github.com/comptaline/backoffice/internal/providers/email"
	pdf "github.com/comptaline/backoffice/internal/providers/pdf"
	seodomain "github.com/comptaline/backoffice/internal/seo/domain"
	seorepo "github.com/comptaline/backoffice/internal/seo/repository"
	seosvc "github.com/comptaline/backoffice/internal/seo/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeStripe struct {
	sessions map[string]*stripe.CheckoutSession
}

func (f *fakeStripe) CreateCheckoutSession(ctx context.Context, req stripe.CheckoutSessionRequest) (*stripe.CheckoutSession, error) {
	session := &stripe.CheckoutSession{
		ID:                fmt.Sprintf("cs_test_%d", len(f.sessions)+1),
		ClientReferenceID: req.ClientReferenceID,
		PaymentStatus:     "unpaid",
		Status:            "open",
		URL:               "https://checkout.stripe.com/c/pay/cs_test",
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeStripe) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session: %s", sessionID)
	}
	return session, nil
}

type fixture struct {
	server *Server
	engine *gin.Engine
	db     *gorm.DB

	auth     authdomain.Service
	articles articledomain.Service
	orders   orderdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:server_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&authdomain.User{},
		&catalogdomain.Product{},
		&catalogdomain.ProductBinary{},
		&promodomain.PromoCode{},
		&articledomain.Article{},
		&pagedomain.Page{},
		&pagedomain.PageBlock{},
		&seodomain.SeoEntry{},
		&newsletterdomain.Subscriber{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&paymentdomain.EventLog{},
		&downloaddomain.DownloadLink{},
		&invoicedomain.Invoice{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	cfg := config.Config{
		Environment:       "test",
		FrontendBaseURL:   "https://www.comptaline.fr",
		AuthJWTSecret:     "test-secret",
		InvoiceStorageDir: t.TempDir(),
		BinaryStorageDir:  t.TempDir(),
	}
	cfg.Stripe.SecretKey = "sk_test_xxx"
	cfg.Stripe.WebhookSecret = "whsec_test"

	enforcer, err := authorization.NewEnforcer(db)
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	authz := authorization.NewService(authorization.Params{DB: db, Log: log, Enforcer: enforcer})

	authService := authsvc.New(authsvc.Params{Config: cfg, DB: db, Log: log, GenID: node, Repo: authrepo.Provide()})
	catalogService := catalogsvc.New(catalogsvc.Params{DB: db, Log: log, GenID: node, Repo: catalogrepo.Provide()})
	promoService := promosvc.New(promosvc.Params{DB: db, Log: log, GenID: node, Repo: promorepo.Provide()})
	articleService := articlesvc.New(articlesvc.Params{DB: db, Log: log, GenID: node, Repo: articlerepo.Provide()})
	pageService := pagesvc.New(pagesvc.Params{DB: db, Log: log, GenID: node, Repo: pagerepo.Provide()})
	seoService := seosvc.New(seosvc.Params{DB: db, Log: log, GenID: node, Repo: seorepo.Provide()})
	newsletterService := newslettersvc.New(newslettersvc.Params{DB: db, Log: log, GenID: node, Repo: newsletterrepo.Provide()})
	orderService := ordersvc.New(ordersvc.Params{DB: db, Log: log, GenID: node, Repo: orderrepo.Provide()})
	pricingService := pricing.New(pricing.Params{Log: log, Catalog: catalogService})
	downloadService := downloadsvc.New(downloadsvc.Params{DB: db, Log: log, GenID: node, Config: cfg, Repo: downloadrepo.Provide(), Catalog: catalogService})
	invoiceService := invoicesvc.New(invoicesvc.Params{DB: db, Log: log, GenID: node, Config: cfg, Repo: invoicerepo.Provide(), Renderer: pdf.New()})
	fulfiller := fulfillment.New(fulfillment.Params{Log: log, Config: cfg, Downloads: downloadService, Invoices: invoiceService, Promos: promoService, Email: &email.NoOpProvider{}})
	paymentService := paymentsvc.New(paymentsvc.Params{DB: db, Log: log, GenID: node, Config: cfg, Repo: paymentrepo.Provide(), Orders: orderService, Catalog: catalogService, Fulfiller: fulfiller})
	checkoutService := checkoutsvc.New(checkoutsvc.Params{
		Log:       log,
		Config:    cfg,
		Orders:    orderService,
		Pricing:   pricingService,
		Promos:    promoService,
		Stripe:    &fakeStripe{sessions: make(map[string]*stripe.CheckoutSession)},
		Fulfiller: fulfiller,
		Downloads: downloadService,
	})

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:           engine,
		Cfg:           cfg,
		DB:            db,
		Log:           log,
		GenID:         node,
		AuthSvc:       authService,
		AuthzSvc:      authz,
		CatalogSvc:    catalogService,
		PromoSvc:      promoService,
		ArticleSvc:    articleService,
		PageSvc:       pageService,
		SeoSvc:        seoService,
		NewsletterSvc: newsletterService,
		OrderSvc:      orderService,
		CheckoutSvc:   checkoutService,
		PaymentSvc:    paymentService,
		DownloadSvc:   downloadService,
		InvoiceSvc:    invoiceService,
	})
	srv.RegisterRoutes()

	return &fixture{
		server:   srv,
		engine:   engine,
		db:       db,
		auth:     authService,
		articles: articleService,
		orders:   orderService,
	}
}

func (f *fixture) createUser(t *testing.T, email, role string) string {
	t.Helper()
	_, err := f.auth.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    email,
		Password: "correct-horse-battery",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	resp, err := f.auth.Login(context.Background(), email, "correct-horse-battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return resp.Token
}
