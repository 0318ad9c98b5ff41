// Package interfaces defines service contracts for finassist
package interfaces

import (
	"context"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// HoldingStorage persists user holdings
type HoldingStorage interface {
	GetHolding(ctx context.Context, username, ticker string) (*models.Holding, error)
	SaveHolding(ctx context.Context, holding *models.Holding) error
	DeleteHolding(ctx context.Context, username, ticker string) error
	ListHoldings(ctx context.Context, username string) ([]models.Holding, error)

	// ListAllHoldings returns every holding across all users, used by the
	// background quote refresh.
	ListAllHoldings(ctx context.Context) ([]models.Holding, error)
}

// UserStorage persists user accounts
type UserStorage interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// MarketCacheStorage persists fetched market data with timestamps so the
// market service can apply freshness TTLs.
type MarketCacheStorage interface {
	GetSeries(ctx context.Context, ticker string) (*models.PriceSeries, error)
	SaveSeries(ctx context.Context, series *models.PriceSeries) error

	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)
	SaveQuote(ctx context.Context, quote *models.Quote) error

	GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
	SaveFundamentals(ctx context.Context, f *models.Fundamentals) error
}

// StorageManager provides access to all storage areas
type StorageManager interface {
	Holdings() HoldingStorage
	Users() UserStorage
	MarketCache() MarketCacheStorage
	Close() error
}
