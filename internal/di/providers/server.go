package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/mostaks/kwr-dashboard-server/internal/api"
	"github.com/mostaks/kwr-dashboard-server/internal/config"
	"github.com/mostaks/kwr-dashboard-server/internal/logger"
	"github.com/mostaks/kwr-dashboard-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dashboardService := do.MustInvoke[*service.DashboardService](i)
	clientService := do.MustInvoke[*service.ClientService](i)
	authService := do.MustInvoke[*service.AuthService](i)

	handler := api.NewServer(
		dashboardService,
		clientService,
		authService,
		log.Logger,
		cfg.Server.RequestTimeout,
		cfg.Server.CORSOrigins,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background.
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
