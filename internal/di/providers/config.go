package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/mostaks/kwr-dashboard-server/internal/config"
	"github.com/mostaks/kwr-dashboard-server/internal/logger"
)

// ProvideConfig loads the application configuration.
func ProvideConfig(do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment != "production",
	}), nil
}

// ProvideSlogLogger exposes the underlying slog.Logger for packages that
// take it directly.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
