package invoice

import (
	"github.com/comptaline/backoffice/internal/invoice/repository"
	"github.com/comptaline/backoffice/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
