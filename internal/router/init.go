package router

import (
	"github.com/saedev/sae-portal/internal/application"
	"github.com/saedev/sae-portal/internal/container"
	pginfra "github.com/saedev/sae-portal/internal/infrastructure/postgres"
	handlers "github.com/saedev/sae-portal/internal/interface/http"
	"github.com/saedev/sae-portal/internal/router/modules"
)

// InitModules initializes all application modules and registers them with
// the router registry. Called once during startup.
func InitModules(r *Registry) {
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := application.NewService(
		repo,
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
	)

	handler := handlers.NewAuthHandler(service, container.GetLogger())

	r.Add(modules.NewAuthModule(handler, service))
}
