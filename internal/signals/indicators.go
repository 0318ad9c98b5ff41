// Package signals provides technical indicator calculations.
// Every function is a pure function of the input series: identical input
// produces bit-identical output, since results are trusted inputs to the
// language model.
package signals

import (
	"fmt"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// Standard retracement ratios between a located high and low
var fibRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// SMASeries calculates the simple moving average over the series.
// The result is aligned to input dates: the first point sits at the
// window-th bar, giving len(series) - window + 1 points.
func SMASeries(series *models.PriceSeries, window int) (*models.SMAResult, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %d", models.ErrInsufficientData, window)
	}
	if series.Len() < window {
		return nil, fmt.Errorf("%w: need %d bars, have %d", models.ErrInsufficientData, window, series.Len())
	}

	points := make([]models.IndicatorPoint, 0, series.Len()-window+1)
	sum := 0.0
	for i, bar := range series.Bars {
		sum += bar.Close
		if i >= window {
			sum -= series.Bars[i-window].Close
		}
		if i >= window-1 {
			points = append(points, models.IndicatorPoint{
				Date:  bar.Date,
				Value: sum / float64(window),
			})
		}
	}

	return &models.SMAResult{
		Ticker: series.Ticker,
		Window: window,
		Points: points,
	}, nil
}

// EMA calculates the latest exponential moving average value
func EMA(series *models.PriceSeries, window int) (float64, error) {
	if window <= 0 || series.Len() < window {
		return 0, fmt.Errorf("%w: need %d bars, have %d", models.ErrInsufficientData, window, series.Len())
	}
	out := talib.Ema(series.Closes(), window)
	return out[len(out)-1], nil
}

// RSI calculates the latest relative strength index value
func RSI(series *models.PriceSeries, window int) (float64, error) {
	if window <= 0 || series.Len() < window+1 {
		return 0, fmt.Errorf("%w: need %d bars, have %d", models.ErrInsufficientData, window+1, series.Len())
	}
	out := talib.Rsi(series.Closes(), window)
	return out[len(out)-1], nil
}

// MACD calculates the latest MACD, signal, and histogram values using the
// standard 12/26/9 configuration.
func MACD(series *models.PriceSeries) (macd, signal, hist float64, err error) {
	const fast, slow, sig = 12, 26, 9
	if series.Len() < slow+sig {
		return 0, 0, 0, fmt.Errorf("%w: need %d bars, have %d", models.ErrInsufficientData, slow+sig, series.Len())
	}
	macdLine, signalLine, histLine := talib.Macd(series.Closes(), fast, slow, sig)
	n := len(macdLine) - 1
	return macdLine[n], signalLine[n], histLine[n], nil
}

// ATR calculates the latest average true range value
func ATR(series *models.PriceSeries, window int) (float64, error) {
	if window <= 0 || series.Len() < window+1 {
		return 0, fmt.Errorf("%w: need %d bars, have %d", models.ErrInsufficientData, window+1, series.Len())
	}

	highs := make([]float64, series.Len())
	lows := make([]float64, series.Len())
	for i, b := range series.Bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	out := talib.Atr(highs, lows, series.Closes(), window)
	return out[len(out)-1], nil
}

// FibonacciRetracement locates the highest high and lowest low within the
// date range and computes the standard retracement levels between them.
// Levels run from the high (0%) down to the low (100%).
func FibonacciRetracement(series *models.PriceSeries, start, end time.Time) (*models.FibLevels, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s after end %s", models.ErrInvalidRange,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	bars := series.Window(start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars between %s and %s", models.ErrInvalidRange,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	high := bars[0].High
	low := bars[0].Low
	for _, b := range bars[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	span := high - low
	levels := make([]models.FibLevel, len(fibRatios))
	for i, r := range fibRatios {
		levels[i] = models.FibLevel{Ratio: r, Price: high - span*r}
	}

	return &models.FibLevels{
		Ticker:     series.Ticker,
		RangeStart: start,
		RangeEnd:   end,
		High:       high,
		Low:        low,
		Levels:     levels,
	}, nil
}

// Candlestick structures the series into the chart-ready shape, validating
// OHLC ordering. Violating bars are flagged rather than silently rendered.
func Candlestick(series *models.PriceSeries) (*models.CandlestickSeries, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: empty series", models.ErrInsufficientData)
	}

	var flagged []models.FlaggedBar
	for i, b := range series.Bars {
		if reason := validateBar(b); reason != "" {
			flagged = append(flagged, models.FlaggedBar{
				Index:  i,
				Date:   b.Date.Format("2006-01-02"),
				Reason: reason,
			})
		}
	}

	return &models.CandlestickSeries{
		Ticker:  series.Ticker,
		Bars:    series.Bars,
		Flagged: flagged,
	}, nil
}

func validateBar(b models.PriceBar) string {
	switch {
	case b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0:
		return "negative price"
	case b.High < b.Low:
		return "high below low"
	case b.High < b.Open || b.High < b.Close:
		return "high below open/close"
	case b.Low > b.Open || b.Low > b.Close:
		return "low above open/close"
	default:
		return ""
	}
}

// AverageVolume calculates average volume across the last period bars
func AverageVolume(series *models.PriceSeries, period int) int64 {
	n := series.Len()
	if n == 0 {
		return 0
	}
	if period > n {
		period = n
	}

	var sum int64
	for _, b := range series.Bars[n-period:] {
		sum += b.Volume
	}
	return sum / int64(period)
}

// VolumeRatio calculates the latest volume as a ratio of the period average
func VolumeRatio(series *models.PriceSeries, period int) float64 {
	if series.Len() == 0 {
		return 1.0
	}
	avg := AverageVolume(series, period)
	if avg == 0 {
		return 1.0
	}
	return float64(series.Bars[series.Len()-1].Volume) / float64(avg)
}

// DetectCrossover detects SMA crossovers between the short and long windows
// at the latest bar. Returns "golden_cross", "death_cross", or "none".
func DetectCrossover(series *models.PriceSeries, shortWindow, longWindow int) string {
	if series.Len() < longWindow+1 {
		return "none"
	}

	short, err := SMASeries(series, shortWindow)
	if err != nil {
		return "none"
	}
	long, err := SMASeries(series, longWindow)
	if err != nil {
		return "none"
	}

	sn, ln := len(short.Points), len(long.Points)
	if sn < 2 || ln < 2 {
		return "none"
	}

	curShort, prevShort := short.Points[sn-1].Value, short.Points[sn-2].Value
	curLong, prevLong := long.Points[ln-1].Value, long.Points[ln-2].Value

	if prevShort <= prevLong && curShort > curLong {
		return "golden_cross"
	}
	if prevShort >= prevLong && curShort < curLong {
		return "death_cross"
	}
	return "none"
}

// ClassifyRSI classifies an RSI value
func ClassifyRSI(rsi float64) string {
	if rsi >= 70 {
		return "overbought"
	}
	if rsi <= 30 {
		return "oversold"
	}
	return "neutral"
}

// ClassifyVolume classifies a volume ratio
func ClassifyVolume(ratio float64) string {
	if ratio >= 1.5 {
		return "spike"
	}
	if ratio <= 0.5 {
		return "low"
	}
	return "normal"
}

// DistanceToSMA calculates percentage distance from a price to an SMA value
func DistanceToSMA(price, sma float64) float64 {
	if sma == 0 {
		return 0
	}
	return ((price - sma) / sma) * 100
}
