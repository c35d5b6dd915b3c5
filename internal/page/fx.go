package page

import (
	"github.com/comptaline/backoffice/internal/page/repository"
	"github.com/comptaline/backoffice/internal/page/service"
	"go.uber.org/fx"
)

var Module = fx.Module("page.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
