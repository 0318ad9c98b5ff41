// Package models defines data structures for finassist
package models

import (
	"sort"
	"time"
)

// PriceBar represents one trading day of OHLCV data
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries holds historical bars for one ticker, ordered by date ascending.
// Missing days are expected non-trading days.
type PriceSeries struct {
	Ticker    string     `json:"ticker"`
	Bars      []PriceBar `json:"bars"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Len returns the number of bars
func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close prices in date order
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// SortByDate orders bars ascending by date
func (s *PriceSeries) SortByDate() {
	sort.Slice(s.Bars, func(i, j int) bool {
		return s.Bars[i].Date.Before(s.Bars[j].Date)
	})
}

// Window returns the bars within [start, end] inclusive
func (s *PriceSeries) Window(start, end time.Time) []PriceBar {
	var out []PriceBar
	for _, b := range s.Bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Quote represents the latest known price for a ticker
type Quote struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fundamentals holds key fundamental metrics for a ticker
type Fundamentals struct {
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name,omitempty"`
	MarketCap float64   `json:"market_cap"`
	PE        float64   `json:"pe"`
	EPS       float64   `json:"eps"`
	PBV       float64   `json:"pbv"`
	Sector    string    `json:"sector,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewsItem represents one headline for a ticker
type NewsItem struct {
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	URL       string    `json:"url,omitempty"`
	Published time.Time `json:"published"`
}
