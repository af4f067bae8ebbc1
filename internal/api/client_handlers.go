package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mostaks/kwr-dashboard-server/internal/domain"
	"github.com/mostaks/kwr-dashboard-server/internal/http/response"
	"github.com/mostaks/kwr-dashboard-server/internal/service"
)

// sanitizeClient strips the password hash before a client document leaves
// the API.
func sanitizeClient(c *domain.Client) *domain.Client {
	clean := *c
	clean.PasswordHash = ""
	return &clean
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var input service.ClientInput
	if err := s.decodeJSON(w, r, &input); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	client, err := s.clientService.Create(r.Context(), input)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, sanitizeClient(client), s.logger)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.clientService.List(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	response.Success(w, clients, s.logger)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, sanitizeClient(client), s.logger)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var patch service.ClientPatch
	if err := s.decodeJSON(w, r, &patch); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	client, err := s.clientService.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, sanitizeClient(client), s.logger)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.clientService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleListClientDashboards(w http.ResponseWriter, r *http.Request) {
	dashboards, err := s.dashboardService.ListForClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, dashboards, s.logger)
}

// verifyAccessRequest is the body for a client password check.
type verifyAccessRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleVerifyClientAccess(w http.ResponseWriter, r *http.Request) {
	var req verifyAccessRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.clientService.VerifyAccess(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]bool{"verified": true}, s.logger)
}
