package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mostaks/kwr-dashboard-server/internal/http/response"
	"github.com/mostaks/kwr-dashboard-server/internal/service"
)

// handleCreateOrUpdateDashboard imports a dashboard: same (name, suffix)
// updates in place, otherwise a new dashboard is created.
func (s *Server) handleCreateOrUpdateDashboard(w http.ResponseWriter, r *http.Request) {
	var input service.DashboardInput
	if err := s.decodeJSON(w, r, &input); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	dash, err := s.dashboardService.CreateOrUpdate(r.Context(), input)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, dash, s.logger)
}

func (s *Server) handleListDashboards(w http.ResponseWriter, r *http.Request) {
	dashboards, err := s.dashboardService.List(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, dashboards, s.logger)
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboardService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, view, s.logger)
}

func (s *Server) handleGetDashboardBySuffix(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboardService.GetBySuffix(r.Context(), chi.URLParam(r, "suffix"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, view, s.logger)
}

func (s *Server) handleGetDashboardByClientAndSuffix(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboardService.GetByClientAndSuffix(
		r.Context(),
		chi.URLParam(r, "clientSuffix"),
		chi.URLParam(r, "dashboardSuffix"),
	)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, view, s.logger)
}

func (s *Server) handleUpdateDashboard(w http.ResponseWriter, r *http.Request) {
	var patch service.DashboardPatch
	if err := s.decodeJSON(w, r, &patch); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	dash, err := s.dashboardService.UpdateMetadata(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, dash, s.logger)
}

func (s *Server) handleDeleteDashboard(w http.ResponseWriter, r *http.Request) {
	if err := s.dashboardService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleCleanupDashboard(w http.ResponseWriter, r *http.Request) {
	if err := s.dashboardService.Cleanup(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]string{"status": "cleaned"}, s.logger)
}
