package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the global zap logger for the application.
var Module = fx.Module("logger",
	fx.Provide(New),
	fx.Invoke(flushOnStop),
)

func flushOnStop(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}
