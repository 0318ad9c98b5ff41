package server

import (
	"errors"
	"net/http"

	"github.com/fernandokurniawan23/finassist/internal/models"
	"github.com/fernandokurniawan23/finassist/internal/services/market"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Narrative string                    `json:"narrative"`
	Chart     *models.ChartSpec         `json:"chart,omitempty"`
	ChartURL  string                    `json:"chart_url,omitempty"`
	Snapshot  *models.PortfolioSnapshot `json:"snapshot,omitempty"`
	ToolsUsed []string                  `json:"tools_used,omitempty"`
}

// handleCreateSession opens a conversation session.
// POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	sessionID := s.app.AssistantService.NewSession(usernameFrom(r))
	WriteJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
}

// handleSession routes session-scoped requests:
//
//	POST   /api/sessions/{id}/messages
//	GET    /api/sessions/{id}/history
//	GET    /api/sessions/{id}/chart.png
//	DELETE /api/sessions/{id}
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := PathParam(r, "/api/sessions/", "")
	if sessionID == "" {
		WriteError(w, http.StatusBadRequest, "Session id is required")
		return
	}

	owner, err := s.app.AssistantService.SessionOwner(sessionID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	if owner != usernameFrom(r) {
		WriteError(w, http.StatusForbidden, "Session belongs to another user")
		return
	}

	rest := r.URL.Path[len("/api/sessions/")+len(sessionID):]
	switch rest {
	case "", "/":
		if !RequireMethod(w, r, http.MethodDelete) {
			return
		}
		s.app.AssistantService.EndSession(sessionID)
		w.WriteHeader(http.StatusNoContent)
	case "/messages":
		s.handleSendMessage(w, r, sessionID)
	case "/history":
		s.handleHistory(w, r, sessionID)
	case "/chart.png":
		s.handleSessionChart(w, r, sessionID)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, sessionID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := s.app.AssistantService.HandleMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		if errors.Is(err, models.ErrQuotaExceeded) {
			WriteErrorWithCode(w, http.StatusTooManyRequests, err.Error(), CodeQuotaExceeded)
			return
		}
		s.logger.Error().Err(err).Str("session", sessionID).Msg("Message handling failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := chatResponse{
		Narrative: reply.Narrative,
		Chart:     reply.Chart,
		Snapshot:  reply.Snapshot,
		ToolsUsed: reply.ToolsUsed,
	}
	if reply.Chart != nil {
		resp.ChartURL = "/api/sessions/" + sessionID + "/chart.png"
	}

	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sessionID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	turns, err := s.app.AssistantService.History(sessionID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "turns": turns})
}

// handleSessionChart renders the session's most recent chart spec as PNG.
func (s *Server) handleSessionChart(w http.ResponseWriter, r *http.Request, sessionID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	spec := s.app.AssistantService.LastChart(sessionID)
	if spec == nil {
		WriteError(w, http.StatusNotFound, "No chart has been produced in this session")
		return
	}

	png, err := market.RenderChartPNG(spec)
	if err != nil {
		s.logger.Error().Err(err).Str("session", sessionID).Msg("Chart render failed")
		WriteError(w, http.StatusInternalServerError, "Chart render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
