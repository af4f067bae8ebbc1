package providers

import (
	"github.com/samber/do/v2"

	"github.com/mostaks/kwr-dashboard-server/internal/config"
	"github.com/mostaks/kwr-dashboard-server/internal/dataforseo"
	"github.com/mostaks/kwr-dashboard-server/internal/logger"
	"github.com/mostaks/kwr-dashboard-server/internal/service"
)

// ProvideVolumeClient provides the DataForSEO search-volume gateway.
func ProvideVolumeClient(i do.Injector) (*dataforseo.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.DataForSEO.Login == "" {
		log.Warn("DataForSEO credentials not configured; serving stored volumes only")
	}

	return dataforseo.New(dataforseo.Config{
		Login:        cfg.DataForSEO.Login,
		Password:     cfg.DataForSEO.Password,
		BaseURL:      cfg.DataForSEO.BaseURL,
		LocationName: cfg.DataForSEO.LocationName,
		LanguageName: cfg.DataForSEO.LanguageName,
	}, log.Logger), nil
}

// ProvideDashboardService provides the dashboard reconciliation service.
func ProvideDashboardService(i do.Injector) (*service.DashboardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	volumes := do.MustInvoke[*dataforseo.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDashboardService(storeHandle.Store, volumes, log.Logger), nil
}

// ProvideClientService provides the tenant management service.
func ProvideClientService(i do.Injector) (*service.ClientService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewClientService(storeHandle.Store, log.Logger), nil
}

// ProvideAuthService provides the admin sign-in service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(cfg.Admin.Email, cfg.Admin.Password, log.Logger), nil
}
