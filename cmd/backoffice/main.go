package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/article"
	"github.com/comptaline/backoffice/internal/auth"
	"github.com/comptaline/backoffice/internal/authorization"
	"github.com/comptaline/backoffice/internal/catalog"
	"github.com/comptaline/backoffice/internal/checkout"
	"github.com/comptaline/backoffice/internal/config"
	"github.com/comptaline/backoffice/internal/download"
	"github.com/comptaline/backoffice/internal/fulfillment"
	"github.com/comptaline/backoffice/internal/invoice"
	"github.com/comptaline/backoffice/internal/logger"
	"github.com/comptaline/backoffice/internal/migration"
	"github.com/comptaline/backoffice/internal/newsletter"
	obsmetrics "github.com/comptaline/backoffice/internal/observability/metrics"
	"github.com/comptaline/backoffice/internal/order"
	"github.com/comptaline/backoffice/internal/page"
	"github.com/comptaline/backoffice/internal/payment"
	"github.com/comptaline/backoffice/internal/pricing"
	"github.com/comptaline/backoffice/internal/promo"
	"github.com/comptaline/backoffice/internal/providers/email"
	"github.com/comptaline/backoffice/internal/providers/pdf"
	"github.com/comptaline/backoffice/internal/ratelimit"
	"github.com/comptaline/backoffice/internal/seo"
	"github.com/comptaline/backoffice/internal/server"
	"github.com/comptaline/backoffice/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		obsmetrics.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,

		// Providers
		email.Module,
		pdf.Module,
		ratelimit.Module,

		// Functional domains
		auth.Module,
		authorization.Module,
		catalog.Module,
		pricing.Module,
		promo.Module,
		article.Module,
		page.Module,
		seo.Module,
		newsletter.Module,
		order.Module,
		download.Module,
		invoice.Module,
		fulfillment.Module,
		payment.Module,
		checkout.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
