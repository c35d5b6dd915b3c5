package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	articledomain "github.com/comptaline/backoffice/internal/article/domain"
	authdomain "github.com/comptaline/backoffice/internal/auth/domain"
	"github.com/comptaline/backoffice/internal/authorization"
	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	checkoutdomain "github.com/comptaline/backoffice/internal/checkout/domain"
	"github.com/comptaline/backoffice/internal/config"
	downloaddomain "github.com/comptaline/backoffice/internal/download/domain"
	invoicedomain "github.com/comptaline/backoffice/internal/invoice/domain"
	newsletterdomain "github.com/comptaline/backoffice/internal/newsletter/domain"
	obsmetrics "github.com/comptaline/backoffice/internal/observability/metrics"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	pagedomain "github.com/comptaline/backoffice/internal/page/domain"
	paymentdomain "github.com/comptaline/backoffice/internal/payment/domain"
	promodomain "github.com/comptaline/backoffice/internal/promo/domain"
	"github.com/comptaline/backoffice/internal/ratelimit"
	seodomain "github.com/comptaline/backoffice/internal/seo/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(obsmetrics.GinMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node

	authSvc       authdomain.Service
	authzSvc      authorization.Service
	catalogSvc    catalogdomain.Service
	promoSvc      promodomain.Service
	articleSvc    articledomain.Service
	pageSvc       pagedomain.Service
	seoSvc        seodomain.Service
	newsletterSvc newsletterdomain.Service
	orderSvc      orderdomain.Service
	checkoutSvc   checkoutdomain.Service
	paymentSvc    paymentdomain.Service
	downloadSvc   downloaddomain.Service
	invoiceSvc    invoicedomain.Service

	publicLimiter *ratelimit.PublicAPILimiter
	metrics       *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node

	AuthSvc       authdomain.Service
	AuthzSvc      authorization.Service
	CatalogSvc    catalogdomain.Service
	PromoSvc      promodomain.Service
	ArticleSvc    articledomain.Service
	PageSvc       pagedomain.Service
	SeoSvc        seodomain.Service
	NewsletterSvc newsletterdomain.Service
	OrderSvc      orderdomain.Service
	CheckoutSvc   checkoutdomain.Service
	PaymentSvc    paymentdomain.Service
	DownloadSvc   downloaddomain.Service
	InvoiceSvc    invoicedomain.Service

	PublicLimiter *ratelimit.PublicAPILimiter `optional:"true"`
	Metrics       *obsmetrics.Metrics         `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("http.server"),
		genID:         p.GenID,
		authSvc:       p.AuthSvc,
		authzSvc:      p.AuthzSvc,
		catalogSvc:    p.CatalogSvc,
		promoSvc:      p.PromoSvc,
		articleSvc:    p.ArticleSvc,
		pageSvc:       p.PageSvc,
		seoSvc:        p.SeoSvc,
		newsletterSvc: p.NewsletterSvc,
		orderSvc:      p.OrderSvc,
		checkoutSvc:   p.CheckoutSvc,
		paymentSvc:    p.PaymentSvc,
		downloadSvc:   p.DownloadSvc,
		invoiceSvc:    p.InvoiceSvc,
		publicLimiter: p.PublicLimiter,
		metrics:       p.Metrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	s.registerAuthRoutes()
	s.registerPublicRoutes()
	s.registerAdminRoutes()
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	// -------- Checkout --------
	api.POST("/payments/checkout-sessions", s.PublicRateLimit(), s.CreateCheckoutSession)
	api.GET("/payments/checkout/confirmation", s.PublicRateLimit(), s.ConfirmCheckout)
	api.POST("/payments/stripe/webhook", s.HandleStripeWebhook)

	// -------- Downloads --------
	api.GET("/downloads/:token", s.PublicRateLimit(), s.ResolveDownload)

	// -------- Storefront content --------
	api.GET("/products", s.ListPublicProducts)
	api.GET("/articles", s.ListPublicArticles)
	api.GET("/articles/:slug", s.GetPublicArticle)
	api.GET("/pages/:slug", s.GetPublicPage)
	api.GET("/seo", s.ResolveSeo)

	api.POST("/newsletter/subscribe", s.PublicRateLimit(), s.SubscribeNewsletter)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.AuthRequired())

	// -------- Catalog --------
	admin.GET("/products", s.can(authorization.ObjectProduct, authorization.ActionView), s.ListProducts)
	admin.POST("/products", s.can(authorization.ObjectProduct, authorization.ActionCreate), s.CreateProduct)
	admin.GET("/products/:id", s.can(authorization.ObjectProduct, authorization.ActionView), s.GetProduct)
	admin.PATCH("/products/:id", s.can(authorization.ObjectProduct, authorization.ActionUpdate), s.UpdateProduct)
	admin.POST("/products/:id/archive", s.can(authorization.ObjectProduct, authorization.ActionDelete), s.ArchiveProduct)
	admin.GET("/products/:id/binaries", s.can(authorization.ObjectBinary, authorization.ActionView), s.ListProductBinaries)
	admin.POST("/products/:id/binaries", s.can(authorization.ObjectBinary, authorization.ActionCreate), s.CreateProductBinary)

	// -------- Promo codes --------
	admin.GET("/promo-codes", s.can(authorization.ObjectPromo, authorization.ActionView), s.ListPromoCodes)
	admin.POST("/promo-codes", s.can(authorization.ObjectPromo, authorization.ActionCreate), s.CreatePromoCode)
	admin.GET("/promo-codes/:id", s.can(authorization.ObjectPromo, authorization.ActionView), s.GetPromoCode)
	admin.PATCH("/promo-codes/:id", s.can(authorization.ObjectPromo, authorization.ActionUpdate), s.UpdatePromoCode)

	// -------- Articles --------
	admin.GET("/articles", s.can(authorization.ObjectArticle, authorization.ActionView), s.ListArticles)
	admin.POST("/articles", s.can(authorization.ObjectArticle, authorization.ActionCreate), s.CreateArticle)
	admin.GET("/articles/:id", s.can(authorization.ObjectArticle, authorization.ActionView), s.GetArticle)
	admin.PATCH("/articles/:id", s.can(authorization.ObjectArticle, authorization.ActionUpdate), s.UpdateArticle)
	admin.DELETE("/articles/:id", s.can(authorization.ObjectArticle, authorization.ActionDelete), s.DeleteArticle)

	// -------- Pages --------
	admin.GET("/pages", s.can(authorization.ObjectPage, authorization.ActionView), s.ListPages)
	admin.POST("/pages", s.can(authorization.ObjectPage, authorization.ActionCreate), s.CreatePage)
	admin.GET("/pages/:id", s.can(authorization.ObjectPage, authorization.ActionView), s.GetPage)
	admin.PATCH("/pages/:id", s.can(authorization.ObjectPage, authorization.ActionUpdate), s.UpdatePage)
	admin.DELETE("/pages/:id", s.can(authorization.ObjectPage, authorization.ActionDelete), s.DeletePage)
	admin.PUT("/pages/:id/blocks", s.can(authorization.ObjectPage, authorization.ActionUpdate), s.SetPageBlocks)

	// -------- SEO --------
	admin.GET("/seo", s.can(authorization.ObjectSeo, authorization.ActionView), s.ListSeoEntries)
	admin.PUT("/seo", s.can(authorization.ObjectSeo, authorization.ActionUpdate), s.UpsertSeoEntry)
	admin.DELETE("/seo/:id", s.can(authorization.ObjectSeo, authorization.ActionDelete), s.DeleteSeoEntry)

	// -------- Newsletter --------
	admin.GET("/newsletter/subscribers", s.can(authorization.ObjectNewsletter, authorization.ActionView), s.ListSubscribers)
	admin.POST("/newsletter/unsubscribe", s.can(authorization.ObjectNewsletter, authorization.ActionUpdate), s.UnsubscribeNewsletter)
	admin.GET("/newsletter/export", s.can(authorization.ObjectNewsletter, authorization.ActionNewsletterExport), s.ExportSubscribers)
	admin.POST("/newsletter/import", s.can(authorization.ObjectNewsletter, authorization.ActionNewsletterImport), s.ImportSubscribers)

	// -------- Orders --------
	admin.GET("/orders", s.can(authorization.ObjectOrder, authorization.ActionView), s.ListOrders)
	admin.GET("/orders/:id", s.can(authorization.ObjectOrder, authorization.ActionView), s.GetOrder)
	admin.POST("/orders/backfill-numbers", s.can(authorization.ObjectOrder, authorization.ActionOrderBackfill), s.BackfillOrderNumbers)
	admin.GET("/orders/:id/invoice", s.can(authorization.ObjectInvoice, authorization.ActionInvoiceDownload), s.DownloadOrderInvoice)
	admin.GET("/orders/:id/downloads", s.can(authorization.ObjectDownload, authorization.ActionView), s.ListOrderDownloads)
	admin.POST("/downloads/:id/revoke", s.can(authorization.ObjectDownload, authorization.ActionDownloadRevoke), s.RevokeDownload)

	// -------- Webhook events --------
	admin.GET("/webhook-events", s.can(authorization.ObjectWebhook, authorization.ActionView), s.ListWebhookEvents)

	// -------- Users --------
	admin.GET("/users", s.can(authorization.ObjectUser, authorization.ActionView), s.ListUsers)
	admin.POST("/users", s.can(authorization.ObjectUser, authorization.ActionCreate), s.CreateUser)
	admin.POST("/users/:id/active", s.can(authorization.ObjectUser, authorization.ActionUpdate), s.SetUserActive)
	admin.POST("/users/:id/password", s.can(authorization.ObjectUser, authorization.ActionUpdate), s.ChangeUserPassword)
}

// can is shorthand for the RBAC gate on admin routes.
func (s *Server) can(object, action string) gin.HandlerFunc {
	return s.RequirePermission(object, action)
}
