package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// Key prefixes keep the three cached record types apart in one store.
const (
	seriesPrefix       = "series/"
	quotePrefix        = "quote/"
	fundamentalsPrefix = "fundamentals/"
)

type marketCacheStorage struct {
	store *Store
}

func (s *marketCacheStorage) GetSeries(_ context.Context, ticker string) (*models.PriceSeries, error) {
	var series models.PriceSeries
	if err := s.store.db.Get(seriesPrefix+ticker, &series); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("no cached series for %s", ticker)
		}
		return nil, fmt.Errorf("failed to get cached series for %s: %w", ticker, err)
	}
	return &series, nil
}

func (s *marketCacheStorage) SaveSeries(_ context.Context, series *models.PriceSeries) error {
	if err := s.store.db.Upsert(seriesPrefix+series.Ticker, series); err != nil {
		return fmt.Errorf("failed to cache series for %s: %w", series.Ticker, err)
	}
	return nil
}

func (s *marketCacheStorage) GetQuote(_ context.Context, ticker string) (*models.Quote, error) {
	var quote models.Quote
	if err := s.store.db.Get(quotePrefix+ticker, &quote); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("no cached quote for %s", ticker)
		}
		return nil, fmt.Errorf("failed to get cached quote for %s: %w", ticker, err)
	}
	return &quote, nil
}

func (s *marketCacheStorage) SaveQuote(_ context.Context, quote *models.Quote) error {
	if err := s.store.db.Upsert(quotePrefix+quote.Ticker, quote); err != nil {
		return fmt.Errorf("failed to cache quote for %s: %w", quote.Ticker, err)
	}
	return nil
}

func (s *marketCacheStorage) GetFundamentals(_ context.Context, ticker string) (*models.Fundamentals, error) {
	var f models.Fundamentals
	if err := s.store.db.Get(fundamentalsPrefix+ticker, &f); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("no cached fundamentals for %s", ticker)
		}
		return nil, fmt.Errorf("failed to get cached fundamentals for %s: %w", ticker, err)
	}
	return &f, nil
}

func (s *marketCacheStorage) SaveFundamentals(_ context.Context, f *models.Fundamentals) error {
	if err := s.store.db.Upsert(fundamentalsPrefix+f.Ticker, f); err != nil {
		return fmt.Errorf("failed to cache fundamentals for %s: %w", f.Ticker, err)
	}
	return nil
}
