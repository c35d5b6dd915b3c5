package article

import (
	"github.com/comptaline/backoffice/internal/article/repository"
	"github.com/comptaline/backoffice/internal/article/service"
	"go.uber.org/fx"
)

var Module = fx.Module("article.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
