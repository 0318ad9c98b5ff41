package server

import "net/http"

// registerRoutes wires all REST endpoints onto the mux.
// Everything except health, version, register, and login requires a bearer
// token.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Service
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/upgrade", s.requireAuth(s.handleUpgrade))
	mux.HandleFunc("/api/auth/me", s.requireAuth(s.handleMe))

	// Assistant sessions
	mux.HandleFunc("/api/sessions", s.requireAuth(s.handleCreateSession))
	mux.HandleFunc("/api/sessions/", s.requireAuth(s.handleSession))

	// Portfolio
	mux.HandleFunc("/api/portfolio", s.requireAuth(s.handlePortfolio))
	mux.HandleFunc("/api/portfolio/purchases", s.requireAuth(s.handlePurchase))
	mux.HandleFunc("/api/portfolio/holdings/", s.requireAuth(s.handleHolding))
	mux.HandleFunc("/api/portfolio/snapshot", s.requireAuth(s.handleSnapshot))

	// Watchlist
	mux.HandleFunc("/api/watchlist", s.requireAuth(s.handleWatchlist))
	mux.HandleFunc("/api/watchlist/", s.requireAuth(s.handleWatchlistTicker))
}
