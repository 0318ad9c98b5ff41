// Package interfaces defines service contracts for finassist
package interfaces

import (
	"context"
	"time"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// MarketService serves market data through a freshness-aware cache
type MarketService interface {
	GetHistory(ctx context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error)
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// RefreshQuote bypasses the cache, fetching and storing a live quote
	RefreshQuote(ctx context.Context, ticker string) (*models.Quote, error)

	GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
	GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error)
}

// PortfolioService manages user-entered holdings and derived valuations
type PortfolioService interface {
	// RecordPurchase appends to or creates a holding, recomputing the
	// weighted-average cost basis. Rejects non-positive quantity/price.
	RecordPurchase(ctx context.Context, username, ticker string, quantity, price float64, currency string, date time.Time) (*models.Holding, error)

	// RemoveHolding deletes a holding on explicit user request
	RemoveHolding(ctx context.Context, username, ticker string) error

	// ListHoldings returns all holdings for a user
	ListHoldings(ctx context.Context, username string) ([]models.Holding, error)

	// Snapshot values current holdings against live quotes. Holdings with no
	// quote are marked stale; aggregates cover the priced holdings only.
	Snapshot(ctx context.Context, username string, usdIDRRate float64) (*models.PortfolioSnapshot, error)
}

// SentimentService summarizes recent coverage into a coarse label
type SentimentService interface {
	Summarize(ctx context.Context, ticker string, headlines []models.NewsItem) (*models.SentimentResult, error)
}

// AssistantService is the tool-orchestration engine
type AssistantService interface {
	// NewSession creates a conversation session for a user and returns its id
	NewSession(username string) string

	// EndSession tears down a session and its history
	EndSession(sessionID string)

	// HandleMessage runs one full round trip: model call, validated tool
	// execution, follow-up model call, final reply.
	HandleMessage(ctx context.Context, sessionID, userText string) (*models.AssistantReply, error)

	// SessionOwner returns the username a session belongs to
	SessionOwner(sessionID string) (string, error)

	// History returns a copy of the session's turns
	History(sessionID string) ([]models.Turn, error)

	// LastChart returns the most recent chart spec produced in the session
	LastChart(sessionID string) *models.ChartSpec
}

// UserService manages accounts, quota, and watchlists
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)

	// CheckQuota reports whether the user may send another message today,
	// with a human-readable status. Resets the counter on date change.
	CheckQuota(ctx context.Context, username string) (bool, string, error)

	// IncrementUsage counts one successful assistant round trip
	IncrementUsage(ctx context.Context, username string) error

	UpgradeToPro(ctx context.Context, username string) error

	AddToWatchlist(ctx context.Context, username, ticker string) error
	RemoveFromWatchlist(ctx context.Context, username, ticker string) error
	GetWatchlist(ctx context.Context, username string) ([]string, error)
}
