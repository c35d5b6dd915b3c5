package email

import (
	"github.com/comptaline/backoffice/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.SMTPHost == "" {
		log.Warn("smtp host not configured, emails disabled")
		return &NoOpProvider{}
	}
	provider, err := NewSMTP(Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		log.Error("smtp provider init failed, emails disabled", zap.Error(err))
		return &NoOpProvider{}
	}
	return provider
}
