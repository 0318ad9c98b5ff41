package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

type purchaseRequest struct {
	Ticker   string  `json:"ticker"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Date     string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

// handlePortfolio serves the authenticated user's holdings.
// GET /api/portfolio
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	holdings, err := s.app.PortfolioService.ListHoldings(r.Context(), usernameFrom(r))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"holdings": holdings, "count": len(holdings)})
}

// handlePurchase records a purchase against the user's portfolio.
// POST /api/portfolio/purchases
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req purchaseRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	holding, err := s.app.PortfolioService.RecordPurchase(r.Context(), usernameFrom(r),
		req.Ticker, req.Quantity, req.Price, req.Currency, date)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransaction) {
			WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_transaction")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, holding)
}

// handleHolding deletes one holding.
// DELETE /api/portfolio/holdings/{ticker}
func (s *Server) handleHolding(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	ticker := PathParam(r, "/api/portfolio/holdings/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	if err := s.app.PortfolioService.RemoveHolding(r.Context(), usernameFrom(r), ticker); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSnapshot values the user's holdings against live quotes.
// GET /api/portfolio/snapshot
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshot, err := s.app.PortfolioService.Snapshot(r.Context(), usernameFrom(r), s.app.Config.Assistant.USDIDRRate)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// handleWatchlist manages the user's tracked tickers.
//
//	GET    /api/watchlist
//	POST   /api/watchlist        {"ticker": "BBCA.JK"}
//	DELETE /api/watchlist/{ticker}
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)

	switch r.Method {
	case http.MethodGet:
		list, err := s.app.UserService.GetWatchlist(r.Context(), username)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"watchlist": list})

	case http.MethodPost:
		var req struct {
			Ticker string `json:"ticker"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		if err := s.app.UserService.AddToWatchlist(r.Context(), username, req.Ticker); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleWatchlistTicker removes one ticker from the watchlist.
// DELETE /api/watchlist/{ticker}
func (s *Server) handleWatchlistTicker(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	ticker := PathParam(r, "/api/watchlist/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	if err := s.app.UserService.RemoveFromWatchlist(r.Context(), usernameFrom(r), ticker); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
