// Package portfolio implements the portfolio store: user-recorded buy
// transactions, weighted-average cost basis, and on-demand valuation
// snapshots.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
)

// Service implements PortfolioService
type Service struct {
	storage interfaces.HoldingStorage
	market  interfaces.MarketService
	logger  *common.Logger

	// Serializes mutations and snapshots across sessions sharing this store
	mu sync.Mutex
}

// NewService creates a new portfolio service
func NewService(storage interfaces.HoldingStorage, market interfaces.MarketService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		market:  market,
		logger:  logger,
	}
}

// RecordPurchase appends a buy transaction to an existing holding or creates
// a new one, recomputing the weighted-average cost basis. Store state is
// unchanged on rejection.
func (s *Service) RecordPurchase(ctx context.Context, username, ticker string, quantity, price float64, currency string, date time.Time) (*models.Holding, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %g", models.ErrInvalidTransaction, quantity)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive, got %g", models.ErrInvalidTransaction, price)
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency != "IDR" && currency != "USD" {
		return nil, fmt.Errorf("%w: unsupported currency %q", models.ErrInvalidTransaction, currency)
	}

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", models.ErrInvalidTransaction)
	}
	if date.IsZero() {
		date = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	qty := decimal.NewFromFloat(quantity)
	prc := decimal.NewFromFloat(price)

	holding, err := s.storage.GetHolding(ctx, username, ticker)
	switch {
	case errors.Is(err, models.ErrHoldingNotFound):
		holding = &models.Holding{
			Username: username,
			Ticker:   ticker,
			Currency: currency,
		}
	case err != nil:
		// A read failure must not become a fresh position that the upsert
		// below would write over the real one.
		return nil, fmt.Errorf("failed to load holding %s: %w", ticker, err)
	case holding.Currency != currency:
		return nil, fmt.Errorf("%w: holding %s is denominated in %s, not %s",
			models.ErrInvalidTransaction, ticker, holding.Currency, currency)
	}

	holding.ApplyPurchase(qty, prc, date)

	if err := s.storage.SaveHolding(ctx, holding); err != nil {
		return nil, fmt.Errorf("failed to save holding: %w", err)
	}

	s.logger.Info().
		Str("user", username).
		Str("ticker", ticker).
		Str("quantity", qty.String()).
		Str("avg_cost", holding.AvgCost.String()).
		Msg("Purchase recorded")

	return holding, nil
}

// RemoveHolding deletes a holding on explicit user request
func (s *Service) RemoveHolding(ctx context.Context, username, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if err := s.storage.DeleteHolding(ctx, username, ticker); err != nil {
		return fmt.Errorf("failed to remove holding %s: %w", ticker, err)
	}

	s.logger.Info().Str("user", username).Str("ticker", ticker).Msg("Holding removed")
	return nil
}

// ListHoldings returns all holdings for a user
func (s *Service) ListHoldings(ctx context.Context, username string) ([]models.Holding, error) {
	return s.storage.ListHoldings(ctx, username)
}

// Snapshot values current holdings against live quotes. A holding whose
// quote cannot be fetched is marked stale rather than failing the snapshot.
func (s *Service) Snapshot(ctx context.Context, username string, usdIDRRate float64) (*models.PortfolioSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdings, err := s.storage.ListHoldings(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	quotes := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		quote, err := s.market.GetQuote(ctx, h.Ticker)
		if err != nil || quote.Price <= 0 {
			s.logger.Warn().Str("ticker", h.Ticker).Msg("No live quote, holding will be stale")
			continue
		}
		quotes[h.Ticker] = quote.Price
	}

	return ComputeSnapshot(username, holdings, quotes, usdIDRRate), nil
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
