package api

import (
	"net/http"
	"strings"

	"github.com/mostaks/kwr-dashboard-server/internal/http/response"
)

// signInRequest is the admin sign-in body.
type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	session, err := s.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, session, s.logger)
}

// handleSession verifies the bearer token from a previous sign-in and
// returns the operator it was issued to.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	email, err := s.authService.VerifySession(token)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]string{"email": email}, s.logger)
}
