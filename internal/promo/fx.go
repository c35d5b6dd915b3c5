package promo

import (
	"github.com/comptaline/backoffice/internal/promo/repository"
	"github.com/comptaline/backoffice/internal/promo/service"
	"go.uber.org/fx"
)

var Module = fx.Module("promo.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
