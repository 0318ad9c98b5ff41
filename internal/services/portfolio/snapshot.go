package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// ComputeSnapshot derives a valuation from holdings plus a ticker → price
// mapping. Pure function: arithmetic runs in decimal and is rounded only
// when the snapshot is assembled for display. Holdings with no quote are
// marked stale and excluded from aggregates.
func ComputeSnapshot(username string, holdings []models.Holding, quotes map[string]float64, usdIDRRate float64) *models.PortfolioSnapshot {
	snapshot := &models.PortfolioSnapshot{
		Username: username,
		AsOf:     time.Now(),
		USDIDR:   usdIDRRate,
		Totals:   map[string]models.CurrencyTotals{},
	}

	rate := decimal.NewFromFloat(usdIDRRate)
	hundred := decimal.NewFromInt(100)

	// Aggregates accumulated in decimal, per display currency
	invested := map[string]decimal.Decimal{"IDR": decimal.Zero, "USD": decimal.Zero}
	value := map[string]decimal.Decimal{"IDR": decimal.Zero, "USD": decimal.Zero}

	for _, h := range holdings {
		valuation := models.HoldingValuation{
			Ticker:   h.Ticker,
			Quantity: h.Quantity.InexactFloat64(),
			AvgCost:  h.AvgCost.InexactFloat64(),
			Currency: h.Currency,
		}

		price, priced := quotes[h.Ticker]
		if !priced {
			valuation.Stale = true
			snapshot.Partial = true
			snapshot.StaleList = append(snapshot.StaleList, h.Ticker)
			snapshot.Holdings = append(snapshot.Holdings, valuation)
			continue
		}

		cur := decimal.NewFromFloat(price)
		inv := h.Quantity.Mul(h.AvgCost)
		val := h.Quantity.Mul(cur)
		gain := val.Sub(inv)

		valuation.CurrentPrice = price
		valuation.Invested = round2(inv)
		valuation.MarketValue = round2(val)
		valuation.UnrealizedPL = round2(gain)
		if inv.IsPositive() {
			valuation.UnrealizedPct = round2(gain.Div(inv).Mul(hundred))
		}
		snapshot.Holdings = append(snapshot.Holdings, valuation)

		// Fold into both display currencies; conversion happens here, at
		// the presentation boundary, never inside the holding itself.
		for _, target := range []string{"IDR", "USD"} {
			invested[target] = invested[target].Add(convert(inv, h.Currency, target, rate))
			value[target] = value[target].Add(convert(val, h.Currency, target, rate))
		}
	}

	for _, target := range []string{"IDR", "USD"} {
		inv := invested[target]
		val := value[target]
		ret := val.Sub(inv)
		totals := models.CurrencyTotals{
			Invested: round2(inv),
			Value:    round2(val),
			Return:   round2(ret),
		}
		if inv.IsPositive() {
			totals.ReturnPct = round2(ret.Div(inv).Mul(hundred))
		}
		snapshot.Totals[target] = totals
	}

	return snapshot
}

func convert(amount decimal.Decimal, from, to string, usdIDR decimal.Decimal) decimal.Decimal {
	if from == to || usdIDR.IsZero() {
		return amount
	}
	if from == "USD" && to == "IDR" {
		return amount.Mul(usdIDR)
	}
	if from == "IDR" && to == "USD" {
		return amount.Div(usdIDR)
	}
	return amount
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
