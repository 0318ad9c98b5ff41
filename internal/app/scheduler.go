package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
)

// quoteScheduler refreshes quotes for every held ticker on a cron schedule,
// so portfolio snapshots during market hours stay close to live without a
// provider round trip per request.
type quoteScheduler struct {
	cron    *cron.Cron
	storage interfaces.StorageManager
	market  interfaces.MarketService
	logger  *common.Logger
}

func newQuoteScheduler(spec string, storage interfaces.StorageManager, market interfaces.MarketService, logger *common.Logger) (*quoteScheduler, error) {
	s := &quoteScheduler{
		cron:    cron.New(),
		storage: storage,
		market:  market,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(spec, s.refreshQuotes); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *quoteScheduler) start() {
	s.cron.Start()
	s.logger.Info().Msg("Quote scheduler started")
}

func (s *quoteScheduler) stop() {
	ctx := s.cron.Stop()
	// Wait for an in-flight refresh to finish, bounded.
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
	}
	s.logger.Info().Msg("Quote scheduler stopped")
}

func (s *quoteScheduler) refreshQuotes() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	tickers := s.activeTickers(ctx)
	if len(tickers) == 0 {
		return
	}

	refreshed := 0
	for _, ticker := range tickers {
		if _, err := s.market.RefreshQuote(ctx, ticker); err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Quote refresh failed")
			continue
		}
		refreshed++
	}

	s.logger.Info().
		Int("tickers", len(tickers)).
		Int("refreshed", refreshed).
		Dur("elapsed", time.Since(start)).
		Msg("Quote refresh complete")
}

// activeTickers collects the distinct tickers across all holdings
func (s *quoteScheduler) activeTickers(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var out []string

	holdings, err := s.storage.Holdings().ListAllHoldings(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Quote refresh: failed to list holdings")
		return nil
	}
	for _, h := range holdings {
		if _, ok := seen[h.Ticker]; !ok {
			seen[h.Ticker] = struct{}{}
			out = append(out, h.Ticker)
		}
	}
	return out
}
