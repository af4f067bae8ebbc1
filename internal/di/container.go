// Package di provides dependency injection configuration for the server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/mostaks/kwr-dashboard-server/internal/config"
	"github.com/mostaks/kwr-dashboard-server/internal/dataforseo"
	"github.com/mostaks/kwr-dashboard-server/internal/di/providers"
	"github.com/mostaks/kwr-dashboard-server/internal/logger"
	"github.com/mostaks/kwr-dashboard-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search-volume provider
	do.Provide(injector, providers.ProvideVolumeClient)

	// Business services
	do.Provide(injector, providers.ProvideDashboardService)
	do.Provide(injector, providers.ProvideClientService)
	do.Provide(injector, providers.ProvideAuthService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap triggers lazy initialization of all services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*dataforseo.Client](injector)
	_ = do.MustInvoke[*service.DashboardService](injector)
	_ = do.MustInvoke[*service.ClientService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
