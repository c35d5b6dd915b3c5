package checkout

import (
	"github.com/comptaline/backoffice/internal/checkout/service"
	"github.com/comptaline/backoffice/internal/config"
	"github.com/comptaline/backoffice/internal/payment/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(func(cfg config.Config) service.StripeAPI {
		return stripe.NewClient(cfg.Stripe.SecretKey)
	}),
	fx.Provide(service.New),
)
