package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

func holding(ticker string, qty, avgCost float64, currency string) models.Holding {
	return models.Holding{
		Username: "alice",
		Ticker:   ticker,
		Quantity: decimal.NewFromFloat(qty),
		AvgCost:  decimal.NewFromFloat(avgCost),
		Currency: currency,
	}
}

func TestComputeSnapshot_SingleHoldingGain(t *testing.T) {
	holdings := []models.Holding{holding("BBCA.JK", 100, 1000, "IDR")}
	quotes := map[string]float64{"BBCA.JK": 1200}

	snap := ComputeSnapshot("alice", holdings, quotes, 16000)

	require.Len(t, snap.Holdings, 1)
	v := snap.Holdings[0]
	assert.Equal(t, 100000.0, v.Invested)
	assert.Equal(t, 120000.0, v.MarketValue)
	assert.Equal(t, 20000.0, v.UnrealizedPL)
	assert.Equal(t, 20.0, v.UnrealizedPct)
	assert.False(t, v.Stale)
	assert.False(t, snap.Partial)

	idr := snap.Totals["IDR"]
	assert.Equal(t, 100000.0, idr.Invested)
	assert.Equal(t, 120000.0, idr.Value)
	assert.Equal(t, 20.0, idr.ReturnPct)

	usd := snap.Totals["USD"]
	assert.Equal(t, 6.25, usd.Invested) // 100000 / 16000
	assert.Equal(t, 7.5, usd.Value)
	assert.Equal(t, 20.0, usd.ReturnPct, "return percentage is rate-invariant")
}

func TestComputeSnapshot_MixedCurrencies(t *testing.T) {
	holdings := []models.Holding{
		holding("BBCA.JK", 100, 1000, "IDR"), // invested 100,000 IDR
		holding("AAPL", 2, 150, "USD"),       // invested 300 USD
	}
	quotes := map[string]float64{"BBCA.JK": 1000, "AAPL": 150}

	snap := ComputeSnapshot("alice", holdings, quotes, 16000)

	idr := snap.Totals["IDR"]
	// 100,000 IDR + 300 USD * 16,000 = 4,900,000
	assert.Equal(t, 4900000.0, idr.Invested)
	assert.Equal(t, idr.Invested, idr.Value)
	assert.Equal(t, 0.0, idr.Return)

	usd := snap.Totals["USD"]
	// 100,000 / 16,000 + 300 = 306.25
	assert.Equal(t, 306.25, usd.Invested)
}

func TestComputeSnapshot_StaleHoldingExcludedFromTotals(t *testing.T) {
	holdings := []models.Holding{
		holding("PRICED", 10, 100, "USD"),
		holding("NOQUOTE", 5, 50, "USD"),
	}
	quotes := map[string]float64{"PRICED": 110}

	snap := ComputeSnapshot("alice", holdings, quotes, 16000)

	require.Len(t, snap.Holdings, 2)
	assert.True(t, snap.Partial)
	assert.Equal(t, []string{"NOQUOTE"}, snap.StaleList)

	var stale models.HoldingValuation
	for _, h := range snap.Holdings {
		if h.Ticker == "NOQUOTE" {
			stale = h
		}
	}
	assert.True(t, stale.Stale)
	assert.Zero(t, stale.MarketValue)

	// Totals cover the priced holding only
	usd := snap.Totals["USD"]
	assert.Equal(t, 1000.0, usd.Invested)
	assert.Equal(t, 1100.0, usd.Value)
}

func TestComputeSnapshot_Empty(t *testing.T) {
	snap := ComputeSnapshot("alice", nil, nil, 16000)

	assert.Empty(t, snap.Holdings)
	assert.False(t, snap.Partial)
	assert.Equal(t, 0.0, snap.Totals["IDR"].Invested)
	assert.Equal(t, 0.0, snap.Totals["USD"].Invested)
}

func TestApplyPurchase_WeightedAverage(t *testing.T) {
	h := &models.Holding{Username: "alice", Ticker: "BBCA.JK", Currency: "IDR"}

	h.ApplyPurchase(decimal.NewFromInt(100), decimal.NewFromInt(1000), mustDate(t, "2024-01-10"))
	h.ApplyPurchase(decimal.NewFromInt(50), decimal.NewFromInt(1300), mustDate(t, "2024-02-10"))

	// (100*1000 + 50*1300) / 150 = 1100
	assert.True(t, h.Quantity.Equal(decimal.NewFromInt(150)), "quantity = %s", h.Quantity)
	assert.True(t, h.AvgCost.Equal(decimal.NewFromInt(1100)), "avg cost = %s", h.AvgCost)
	assert.Equal(t, "2024-01-10", h.FirstAcquired.Format("2006-01-02"))
}

func TestApplyPurchase_OrderIndependentBasis(t *testing.T) {
	buys := []struct{ qty, price int64 }{{100, 1000}, {50, 1300}, {25, 900}}

	a := &models.Holding{}
	for _, b := range buys {
		a.ApplyPurchase(decimal.NewFromInt(b.qty), decimal.NewFromInt(b.price), mustDate(t, "2024-01-10"))
	}

	b := &models.Holding{}
	for i := len(buys) - 1; i >= 0; i-- {
		b.ApplyPurchase(decimal.NewFromInt(buys[i].qty), decimal.NewFromInt(buys[i].price), mustDate(t, "2024-01-10"))
	}

	assert.True(t, a.AvgCost.Sub(b.AvgCost).Abs().LessThan(decimal.NewFromFloat(1e-9)),
		"basis should not depend on purchase order: %s vs %s", a.AvgCost, b.AvgCost)
}
