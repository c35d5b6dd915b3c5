package newsletter

import (
	"github.com/comptaline/backoffice/internal/newsletter/repository"
	"github.com/comptaline/backoffice/internal/newsletter/service"
	"go.uber.org/fx"
)

var Module = fx.Module("newsletter.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
