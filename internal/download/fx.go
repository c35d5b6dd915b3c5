package download

import (
	"github.com/comptaline/backoffice/internal/download/repository"
	"github.com/comptaline/backoffice/internal/download/service"
	"go.uber.org/fx"
)

var Module = fx.Module("download.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
