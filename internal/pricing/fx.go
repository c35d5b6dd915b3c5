package pricing

import "go.uber.org/fx"

var Module = fx.Module("pricing.service",
	fx.Provide(New),
)
