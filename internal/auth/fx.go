package auth

import (
	"github.com/comptaline/backoffice/internal/auth/repository"
	"github.com/comptaline/backoffice/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
