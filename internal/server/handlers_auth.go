package server

import (
	"net/http"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Tier     models.Tier `json:"tier"`
}

// handleRegister creates an account and returns an access token.
// POST /api/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := s.app.UserService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := signAccessToken(user.Username, s.app.Config)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign access token")
		WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	WriteJSON(w, http.StatusCreated, authResponse{Token: token, Username: user.Username, Tier: user.Tier})
}

// handleLogin verifies credentials and returns an access token.
// POST /api/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := s.app.UserService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := signAccessToken(user.Username, s.app.Config)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign access token")
		WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{Token: token, Username: user.Username, Tier: user.Tier})
}

// handleUpgrade lifts the authenticated user's daily quota.
// POST /api/auth/upgrade
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	username := usernameFrom(r)
	if err := s.app.UserService.UpgradeToPro(r.Context(), username); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"username": username, "tier": string(models.TierPro)})
}

// handleMe returns the authenticated user's profile and quota status.
// GET /api/auth/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	username := usernameFrom(r)
	allowed, status, err := s.app.UserService.CheckQuota(r.Context(), username)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"username":    username,
		"can_message": allowed,
		"quota":       status,
	})
}
