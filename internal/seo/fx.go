package seo

import (
	"github.com/comptaline/backoffice/internal/seo/repository"
	"github.com/comptaline/backoffice/internal/seo/service"
	"go.uber.org/fx"
)

var Module = fx.Module("seo.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
