package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents one position built from user-recorded buy transactions.
// Cost basis is the quantity-weighted average purchase price; it is only
// mutated by recording further purchases for the same ticker.
type Holding struct {
	Username      string          `json:"username"`
	Ticker        string          `json:"ticker" badgerhold:"index"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgCost       decimal.Decimal `json:"avg_cost"`
	Currency      string          `json:"currency"` // "IDR" or "USD"
	FirstAcquired time.Time       `json:"first_acquired"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Key returns the storage key for this holding
func (h *Holding) Key() string {
	return h.Username + "/" + h.Ticker
}

// ApplyPurchase folds a new buy transaction into the weighted-average basis:
// new_basis = (old_qty*old_basis + qty*price) / (old_qty+qty)
func (h *Holding) ApplyPurchase(quantity, price decimal.Decimal, date time.Time) {
	oldCost := h.Quantity.Mul(h.AvgCost)
	newCost := quantity.Mul(price)
	total := h.Quantity.Add(quantity)
	h.AvgCost = oldCost.Add(newCost).Div(total)
	h.Quantity = total
	if h.FirstAcquired.IsZero() || date.Before(h.FirstAcquired) {
		h.FirstAcquired = date
	}
	h.UpdatedAt = time.Now()
}

// HoldingValuation is a holding priced with a live quote
type HoldingValuation struct {
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	AvgCost       float64 `json:"avg_cost"`
	CurrentPrice  float64 `json:"current_price"`
	Invested      float64 `json:"invested"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPL  float64 `json:"unrealized_pl"`
	UnrealizedPct float64 `json:"unrealized_pct"`
	Currency      string  `json:"currency"`
	Stale         bool    `json:"stale"` // no live quote available; excluded from aggregates
}

// CurrencyTotals aggregates a snapshot in one display currency
type CurrencyTotals struct {
	Invested  float64 `json:"invested"`
	Value     float64 `json:"value"`
	Return    float64 `json:"return"`
	ReturnPct float64 `json:"return_pct"`
}

// PortfolioSnapshot is derived on demand from holdings plus live quotes.
// Never persisted. Totals are reported in both IDR and USD using the
// supplied exchange rate; rounding happens only here, at the display boundary.
type PortfolioSnapshot struct {
	Username  string                    `json:"username"`
	AsOf      time.Time                 `json:"as_of"`
	Holdings  []HoldingValuation        `json:"holdings"`
	Totals    map[string]CurrencyTotals `json:"totals"` // keyed "IDR", "USD"
	USDIDR    float64                   `json:"usd_idr_rate"`
	Partial   bool                      `json:"partial"` // at least one holding lacked a quote
	StaleList []string                  `json:"stale_tickers,omitempty"`
}

// Summary renders a compact textual view for the model payload
func (s *PortfolioSnapshot) Summary() string {
	out := ""
	for _, h := range s.Holdings {
		if h.Stale {
			out += fmt.Sprintf("%s: %g units, no live quote (stale)\n", h.Ticker, h.Quantity)
			continue
		}
		out += fmt.Sprintf("%s: %g units @ %.2f %s, now %.2f, P/L %+.2f (%+.2f%%)\n",
			h.Ticker, h.Quantity, h.AvgCost, h.Currency, h.CurrentPrice, h.UnrealizedPL, h.UnrealizedPct)
	}
	for cur, t := range s.Totals {
		out += fmt.Sprintf("Total (%s): invested %.2f, value %.2f, return %+.2f (%+.2f%%)\n",
			cur, t.Invested, t.Value, t.Return, t.ReturnPct)
	}
	return out
}
