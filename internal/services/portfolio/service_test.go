package portfolio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// memHoldings is an in-memory HoldingStorage
type memHoldings struct {
	data    map[string]models.Holding
	readErr error // when set, GetHolding fails with this instead of looking up
}

func newMemHoldings() *memHoldings {
	return &memHoldings{data: make(map[string]models.Holding)}
}

func (m *memHoldings) GetHolding(_ context.Context, username, ticker string) (*models.Holding, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	h, ok := m.data[username+"/"+ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrHoldingNotFound, ticker)
	}
	return &h, nil
}

func (m *memHoldings) SaveHolding(_ context.Context, h *models.Holding) error {
	m.data[h.Key()] = *h
	return nil
}

func (m *memHoldings) DeleteHolding(_ context.Context, username, ticker string) error {
	delete(m.data, username+"/"+ticker)
	return nil
}

func (m *memHoldings) ListHoldings(_ context.Context, username string) ([]models.Holding, error) {
	var out []models.Holding
	for _, h := range m.data {
		if h.Username == username {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memHoldings) ListAllHoldings(_ context.Context) ([]models.Holding, error) {
	var out []models.Holding
	for _, h := range m.data {
		out = append(out, h)
	}
	return out, nil
}

// quoteStub serves fixed quotes and fails for unlisted tickers
type quoteStub struct {
	prices map[string]float64
}

func (q *quoteStub) GetHistory(context.Context, string, time.Time, time.Time) (*models.PriceSeries, error) {
	return nil, fmt.Errorf("not implemented")
}

func (q *quoteStub) GetQuote(_ context.Context, ticker string) (*models.Quote, error) {
	p, ok := q.prices[ticker]
	if !ok {
		return nil, models.ErrProviderUnavailable
	}
	return &models.Quote{Ticker: ticker, Price: p, UpdatedAt: time.Now()}, nil
}

func (q *quoteStub) RefreshQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	return q.GetQuote(ctx, ticker)
}

func (q *quoteStub) GetFundamentals(context.Context, string) (*models.Fundamentals, error) {
	return nil, fmt.Errorf("not implemented")
}

func (q *quoteStub) GetNews(context.Context, string, int) ([]models.NewsItem, error) {
	return nil, fmt.Errorf("not implemented")
}

func newTestService(prices map[string]float64) (*Service, *memHoldings) {
	store := newMemHoldings()
	svc := NewService(store, &quoteStub{prices: prices}, common.NewSilentLogger())
	return svc, store
}

func TestRecordPurchase_CreatesAndAccumulates(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()

	h, err := svc.RecordPurchase(ctx, "alice", "bbca.jk", 100, 1000, "idr", mustDate(t, "2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, "BBCA.JK", h.Ticker, "ticker and currency are normalized")
	assert.Equal(t, "IDR", h.Currency)

	h, err = svc.RecordPurchase(ctx, "alice", "BBCA.JK", 50, 1300, "IDR", mustDate(t, "2024-02-10"))
	require.NoError(t, err)
	assert.Equal(t, "1100", h.AvgCost.String())
	assert.Equal(t, "150", h.Quantity.String())

	assert.Len(t, store.data, 1)
}

func TestRecordPurchase_Rejections(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()
	date := mustDate(t, "2024-01-10")

	tests := []struct {
		name       string
		ticker     string
		qty, price float64
		currency   string
	}{
		{"zero quantity", "BBCA.JK", 0, 1000, "IDR"},
		{"negative quantity", "BBCA.JK", -5, 1000, "IDR"},
		{"zero price", "BBCA.JK", 10, 0, "IDR"},
		{"negative price", "BBCA.JK", 10, -1, "IDR"},
		{"unsupported currency", "BBCA.JK", 10, 1000, "EUR"},
		{"empty ticker", "", 10, 1000, "IDR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordPurchase(ctx, "alice", tt.ticker, tt.qty, tt.price, tt.currency, date)
			require.ErrorIs(t, err, models.ErrInvalidTransaction)
		})
	}

	assert.Empty(t, store.data, "rejected transactions leave the store unchanged")
}

func TestRecordPurchase_ReadFailureDoesNotResetPosition(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, "alice", "BBCA.JK", 10, 100, "IDR", mustDate(t, "2024-01-10"))
	require.NoError(t, err)

	store.readErr = fmt.Errorf("transient read failure")
	_, err = svc.RecordPurchase(ctx, "alice", "BBCA.JK", 5, 200, "IDR", mustDate(t, "2024-02-10"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrHoldingNotFound)

	store.readErr = nil
	h, err := store.GetHolding(ctx, "alice", "BBCA.JK")
	require.NoError(t, err)
	assert.Equal(t, "10", h.Quantity.String(), "existing position survives a failed read")
	assert.Equal(t, "100", h.AvgCost.String())
}

func TestRecordPurchase_CurrencyMismatch(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	date := mustDate(t, "2024-01-10")

	_, err := svc.RecordPurchase(ctx, "alice", "AAPL", 10, 150, "USD", date)
	require.NoError(t, err)

	_, err = svc.RecordPurchase(ctx, "alice", "AAPL", 5, 2400000, "IDR", date)
	require.ErrorIs(t, err, models.ErrInvalidTransaction)
}

func TestSnapshot_MarksUnquotedHoldingsStale(t *testing.T) {
	svc, _ := newTestService(map[string]float64{"PRICED": 120})
	ctx := context.Background()
	date := mustDate(t, "2024-01-10")

	_, err := svc.RecordPurchase(ctx, "alice", "PRICED", 10, 100, "USD", date)
	require.NoError(t, err)
	_, err = svc.RecordPurchase(ctx, "alice", "DARK", 10, 100, "USD", date)
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, "alice", 16000)
	require.NoError(t, err)

	assert.True(t, snap.Partial)
	assert.Equal(t, []string{"DARK"}, snap.StaleList)
	assert.Equal(t, 1200.0, snap.Totals["USD"].Value)
}

func TestRemoveHolding(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, "alice", "AAPL", 10, 150, "USD", mustDate(t, "2024-01-10"))
	require.NoError(t, err)

	require.NoError(t, svc.RemoveHolding(ctx, "alice", "aapl"))
	assert.Empty(t, store.data)
}
