package signals

import (
	"fmt"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

const (
	reportFibLookback = 90 // trading days scanned for the retracement range
	reportATRWindow   = 14
	reportRSIWindow   = 14
)

// BuildReport aggregates trend, price action, momentum, retracement, and risk
// metrics into the swing-trade recommendation report. Pure function of the
// series; the model narrates from it but never recomputes.
func BuildReport(series *models.PriceSeries) (*models.RecommendationReport, error) {
	if series.Len() < 51 {
		return nil, fmt.Errorf("%w: need at least 51 bars for the 50-day trend, have %d",
			models.ErrInsufficientData, series.Len())
	}

	n := series.Len()
	price := series.Bars[n-1].Close

	sma20, err := SMASeries(series, 20)
	if err != nil {
		return nil, err
	}
	sma50, err := SMASeries(series, 50)
	if err != nil {
		return nil, err
	}

	trend := "BEARISH"
	if sma20.Latest() > sma50.Latest() {
		trend = "BULLISH"
	}

	// Breakout: latest close at or above the 20-day high
	high20 := series.Bars[n-20].High
	for _, b := range series.Bars[n-20:] {
		if b.High > high20 {
			high20 = b.High
		}
	}
	breakout := "in_range"
	if price >= high20 {
		breakout = "potential_breakout"
	}

	// Pullback: bullish trend with price within 2% of SMA20
	dist20 := DistanceToSMA(price, sma20.Latest())
	pullback := "none"
	if trend == "BULLISH" && dist20 >= -2 && dist20 <= 2 {
		pullback = "pullback_zone"
	}

	rsi, err := RSI(series, reportRSIWindow)
	if err != nil {
		return nil, err
	}

	volRatio := VolumeRatio(series, 20)

	// Retracement over the recent lookback window
	fibBars := series.Bars
	if n > reportFibLookback {
		fibBars = series.Bars[n-reportFibLookback:]
	}
	fibSeries := &models.PriceSeries{Ticker: series.Ticker, Bars: fibBars}
	fib, err := FibonacciRetracement(fibSeries, fibBars[0].Date, fibBars[len(fibBars)-1].Date)
	if err != nil {
		return nil, err
	}

	atr, err := ATR(series, reportATRWindow)
	if err != nil {
		return nil, err
	}

	return &models.RecommendationReport{
		Ticker:         series.Ticker,
		CurrentPrice:   price,
		Trend:          trend,
		SMA20:          sma20.Latest(),
		SMA50:          sma50.Latest(),
		CrossSignal:    DetectCrossover(series, 20, 50),
		BreakoutStatus: breakout,
		PullbackStatus: pullback,
		RSI:            rsi,
		RSIStatus:      ClassifyRSI(rsi),
		VolumeRatio:    volRatio,
		VolumeStatus:   ClassifyVolume(volRatio),
		Fibonacci:      fib.Levels,
		ATR:            atr,
		SuggestedStop:  price - atr*2,
	}, nil
}

// BuildChartSpec assembles the technical chart description: candlesticks,
// SMA 20/50 overlays, and retracement levels over the recent lookback window.
func BuildChartSpec(series *models.PriceSeries) (*models.ChartSpec, error) {
	candles, err := Candlestick(series)
	if err != nil {
		return nil, err
	}

	spec := &models.ChartSpec{
		Ticker: series.Ticker,
		Title:  fmt.Sprintf("Technical Chart: %s (SMA 20/50 + Fibonacci)", series.Ticker),
		Bars:   candles.Bars,
	}

	if sma20, err := SMASeries(series, 20); err == nil {
		spec.Overlays = append(spec.Overlays, models.ChartOverlay{Name: "SMA 20", Points: sma20.Points})
	}
	if sma50, err := SMASeries(series, 50); err == nil {
		spec.Overlays = append(spec.Overlays, models.ChartOverlay{Name: "SMA 50", Points: sma50.Points})
	}

	n := series.Len()
	fibBars := series.Bars
	if n > reportFibLookback {
		fibBars = series.Bars[n-reportFibLookback:]
	}
	fibSeries := &models.PriceSeries{Ticker: series.Ticker, Bars: fibBars}
	if fib, err := FibonacciRetracement(fibSeries, fibBars[0].Date, fibBars[len(fibBars)-1].Date); err == nil {
		// The dotted lines on the original chart: 38.2, 50, and 61.8 only
		for _, l := range fib.Levels {
			if l.Ratio == 0.382 || l.Ratio == 0.5 || l.Ratio == 0.618 {
				spec.Levels = append(spec.Levels, l)
			}
		}
	}

	return spec, nil
}
