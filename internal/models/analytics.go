package models

import (
	"fmt"
	"time"
)

// ResultKind tags the variant held by an AnalyticsResult
type ResultKind string

const (
	ResultKindSMA          ResultKind = "sma"
	ResultKindIndicator    ResultKind = "indicator" // scalar indicators: EMA, RSI, MACD, price
	ResultKindFibonacci    ResultKind = "fibonacci"
	ResultKindCandlestick  ResultKind = "candlestick"
	ResultKindSentiment    ResultKind = "sentiment"
	ResultKindSnapshot     ResultKind = "snapshot"
	ResultKindFundamentals ResultKind = "fundamentals"
	ResultKindReport       ResultKind = "report"
	ResultKindChart        ResultKind = "chart"
	ResultKindInfo         ResultKind = "info" // acknowledgements and simple listings
)

// IndicatorPoint is one dated value in an indicator series
type IndicatorPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// SMAResult is a simple moving average series aligned to input dates.
// Points start at the first date with a full window behind it.
type SMAResult struct {
	Ticker string           `json:"ticker"`
	Window int              `json:"window"`
	Points []IndicatorPoint `json:"points"`
}

// Latest returns the most recent SMA value
func (r *SMAResult) Latest() float64 {
	if len(r.Points) == 0 {
		return 0
	}
	return r.Points[len(r.Points)-1].Value
}

// ScalarIndicator is a single-valued indicator reading
type ScalarIndicator struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"` // "ema", "rsi", "macd", "price"
	Value  float64 `json:"value"`
	Detail string  `json:"detail,omitempty"` // e.g. "MACD: 1.20, Signal: 0.98, Hist: 0.22"
}

// FibLevel is one retracement level between a located high and low
type FibLevel struct {
	Ratio float64 `json:"ratio"` // 0, 0.236, 0.382, 0.5, 0.618, 0.786, 1
	Price float64 `json:"price"`
}

// FibLevels holds the retracement levels computed over a date range
type FibLevels struct {
	Ticker     string     `json:"ticker"`
	RangeStart time.Time  `json:"range_start"`
	RangeEnd   time.Time  `json:"range_end"`
	High       float64    `json:"high"`
	Low        float64    `json:"low"`
	Levels     []FibLevel `json:"levels"`
}

// FlaggedBar marks a bar whose OHLC values violate ordering invariants
type FlaggedBar struct {
	Index  int    `json:"index"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// CandlestickSeries is chart-ready OHLC data with invariant violations flagged
// rather than silently rendered.
type CandlestickSeries struct {
	Ticker  string       `json:"ticker"`
	Bars    []PriceBar   `json:"bars"`
	Flagged []FlaggedBar `json:"flagged,omitempty"`
}

// SentimentLabel is the coarse classification of recent coverage
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// SentimentResult pairs a label with a short justification
type SentimentResult struct {
	Ticker        string         `json:"ticker"`
	Label         SentimentLabel `json:"label"`
	Justification string         `json:"justification"`
	HeadlineCount int            `json:"headline_count"`
}

// RecommendationReport aggregates trend, momentum, and risk metrics for the
// swing-trade analysis tool.
type RecommendationReport struct {
	Ticker          string     `json:"ticker"`
	CurrentPrice    float64    `json:"current_price"`
	Trend           string     `json:"trend"` // BULLISH or BEARISH
	SMA20           float64    `json:"sma_20"`
	SMA50           float64    `json:"sma_50"`
	CrossSignal     string     `json:"cross_signal"` // golden_cross, death_cross, none
	BreakoutStatus  string     `json:"breakout_status"`
	PullbackStatus  string     `json:"pullback_status"`
	RSI             float64    `json:"rsi"`
	RSIStatus       string     `json:"rsi_status"`
	VolumeRatio     float64    `json:"volume_ratio"`
	VolumeStatus    string     `json:"volume_status"`
	Fibonacci       []FibLevel `json:"fibonacci"`
	ATR             float64    `json:"atr"`
	SuggestedStop   float64    `json:"suggested_stop"`
}

// AnalyticsResult is the tagged union returned by tool execution and surfaced
// to both the model and the renderer.
type AnalyticsResult struct {
	Kind         ResultKind            `json:"kind"`
	SMA          *SMAResult            `json:"sma,omitempty"`
	Indicator    *ScalarIndicator      `json:"indicator,omitempty"`
	Fibonacci    *FibLevels            `json:"fibonacci,omitempty"`
	Candles      *CandlestickSeries    `json:"candles,omitempty"`
	Sentiment    *SentimentResult      `json:"sentiment,omitempty"`
	Snapshot     *PortfolioSnapshot    `json:"snapshot,omitempty"`
	Fundamentals *Fundamentals         `json:"fundamentals,omitempty"`
	Report       *RecommendationReport `json:"report,omitempty"`
	Chart        *ChartSpec            `json:"chart,omitempty"`
	Info         map[string]any        `json:"info,omitempty"`
}

// Payload renders the result as the structured map fed back to the model as
// a function response. Numbers stay numeric so the model narrates, never
// recomputes.
func (r *AnalyticsResult) Payload() map[string]any {
	out := map[string]any{"kind": string(r.Kind)}

	switch r.Kind {
	case ResultKindSMA:
		out["ticker"] = r.SMA.Ticker
		out["window"] = r.SMA.Window
		out["latest"] = r.SMA.Latest()
		out["points"] = len(r.SMA.Points)
	case ResultKindIndicator:
		out["ticker"] = r.Indicator.Ticker
		out["name"] = r.Indicator.Name
		out["value"] = r.Indicator.Value
		if r.Indicator.Detail != "" {
			out["detail"] = r.Indicator.Detail
		}
	case ResultKindFibonacci:
		out["ticker"] = r.Fibonacci.Ticker
		out["high"] = r.Fibonacci.High
		out["low"] = r.Fibonacci.Low
		levels := make(map[string]float64, len(r.Fibonacci.Levels))
		for _, l := range r.Fibonacci.Levels {
			levels[fmt.Sprintf("%.1f%%", l.Ratio*100)] = l.Price
		}
		out["levels"] = levels
	case ResultKindCandlestick:
		out["ticker"] = r.Candles.Ticker
		out["bars"] = len(r.Candles.Bars)
		out["flagged"] = len(r.Candles.Flagged)
	case ResultKindSentiment:
		out["ticker"] = r.Sentiment.Ticker
		out["label"] = string(r.Sentiment.Label)
		out["justification"] = r.Sentiment.Justification
		out["headlines"] = r.Sentiment.HeadlineCount
	case ResultKindSnapshot:
		out["invested"] = r.Snapshot.Totals
		out["holdings"] = len(r.Snapshot.Holdings)
		out["partial"] = r.Snapshot.Partial
		out["detail"] = r.Snapshot.Summary()
	case ResultKindFundamentals:
		out["ticker"] = r.Fundamentals.Ticker
		out["market_cap"] = r.Fundamentals.MarketCap
		out["pe"] = r.Fundamentals.PE
		out["eps"] = r.Fundamentals.EPS
		out["pbv"] = r.Fundamentals.PBV
	case ResultKindReport:
		out["ticker"] = r.Report.Ticker
		out["report"] = r.Report
	case ResultKindChart:
		out["ticker"] = r.Chart.Ticker
		out["status"] = "chart generated"
	case ResultKindInfo:
		for k, v := range r.Info {
			out[k] = v
		}
	}

	return out
}
