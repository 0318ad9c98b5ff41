// Package market serves market data through a freshness-aware cache with
// bounded retry against the external provider.
package market

import (
	"context"
	"errors"
	"time"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
)

var retryBackoff = 500 * time.Millisecond

// Service implements MarketService
type Service struct {
	client interfaces.MarketDataClient
	cache  interfaces.MarketCacheStorage
	logger *common.Logger
}

// NewService creates a new market service
func NewService(client interfaces.MarketDataClient, cache interfaces.MarketCacheStorage, logger *common.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// retry runs fn, retrying once after a short backoff on provider failure.
// Unknown-ticker errors are not retried; the answer won't change.
func retry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, models.ErrUnknownTicker) || ctx.Err() != nil {
		return err
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn()
}

// GetHistory retrieves daily price history, preferring a fresh cached series
// that covers the requested range. On provider failure a stale covering
// series is returned as a degraded result.
func (s *Service) GetHistory(ctx context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error) {
	cached, cacheErr := s.cache.GetSeries(ctx, ticker)
	if cacheErr == nil && common.IsFresh(cached.UpdatedAt, common.FreshnessHistory) && covers(cached, from, to) {
		return subSeries(cached, from, to), nil
	}

	var series *models.PriceSeries
	err := retry(ctx, func() error {
		var fetchErr error
		series, fetchErr = s.client.GetHistory(ctx, ticker, from, to)
		return fetchErr
	})
	if err != nil {
		if cacheErr == nil && covers(cached, from, to) {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Provider failed, serving stale history")
			return subSeries(cached, from, to), nil
		}
		return nil, err
	}

	// Only cache series that extend what we already hold
	if cacheErr != nil || series.Len() >= cached.Len() {
		if saveErr := s.cache.SaveSeries(ctx, series); saveErr != nil {
			s.logger.Warn().Err(saveErr).Str("ticker", ticker).Msg("Failed to cache history")
		}
	}

	return series, nil
}

func covers(series *models.PriceSeries, from, to time.Time) bool {
	if series == nil || series.Len() == 0 {
		return false
	}
	first := series.Bars[0].Date
	last := series.Bars[series.Len()-1].Date
	// A few days of slack at each end for non-trading days
	return !first.After(from.AddDate(0, 0, 4)) && !last.Before(to.AddDate(0, 0, -4))
}

func subSeries(series *models.PriceSeries, from, to time.Time) *models.PriceSeries {
	return &models.PriceSeries{
		Ticker:    series.Ticker,
		Bars:      series.Window(from, to),
		UpdatedAt: series.UpdatedAt,
	}
}

// GetQuote retrieves the latest price, cached for a short TTL
func (s *Service) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	cached, cacheErr := s.cache.GetQuote(ctx, ticker)
	if cacheErr == nil && common.IsFresh(cached.UpdatedAt, common.FreshnessQuote) {
		return cached, nil
	}

	var quote *models.Quote
	err := retry(ctx, func() error {
		var fetchErr error
		quote, fetchErr = s.client.GetQuote(ctx, ticker)
		return fetchErr
	})
	if err != nil {
		if cacheErr == nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Provider failed, serving stale quote")
			return cached, nil
		}
		return nil, err
	}

	if saveErr := s.cache.SaveQuote(ctx, quote); saveErr != nil {
		s.logger.Warn().Err(saveErr).Str("ticker", ticker).Msg("Failed to cache quote")
	}

	return quote, nil
}

// RefreshQuote fetches a quote from the provider unconditionally and
// updates the cache. Used by the background scheduler.
func (s *Service) RefreshQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	var quote *models.Quote
	err := retry(ctx, func() error {
		var fetchErr error
		quote, fetchErr = s.client.GetQuote(ctx, ticker)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if saveErr := s.cache.SaveQuote(ctx, quote); saveErr != nil {
		s.logger.Warn().Err(saveErr).Str("ticker", ticker).Msg("Failed to cache quote")
	}
	return quote, nil
}

// GetFundamentals retrieves fundamental metrics, cached for a week
func (s *Service) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	cached, cacheErr := s.cache.GetFundamentals(ctx, ticker)
	if cacheErr == nil && common.IsFresh(cached.UpdatedAt, common.FreshnessFundamentals) {
		return cached, nil
	}

	var fundamentals *models.Fundamentals
	err := retry(ctx, func() error {
		var fetchErr error
		fundamentals, fetchErr = s.client.GetFundamentals(ctx, ticker)
		return fetchErr
	})
	if err != nil {
		if cacheErr == nil {
			return cached, nil
		}
		return nil, err
	}

	if saveErr := s.cache.SaveFundamentals(ctx, fundamentals); saveErr != nil {
		s.logger.Warn().Err(saveErr).Str("ticker", ticker).Msg("Failed to cache fundamentals")
	}

	return fundamentals, nil
}

// GetNews retrieves recent headlines. News is not cached; the sentiment
// tool always works from current coverage.
func (s *Service) GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	var news []models.NewsItem
	err := retry(ctx, func() error {
		var fetchErr error
		news, fetchErr = s.client.GetNews(ctx, ticker, limit)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return news, nil
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
