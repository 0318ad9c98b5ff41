package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
	"github.com/fernandokurniawan23/finassist/internal/signals"
	"github.com/fernandokurniawan23/finassist/internal/tools"
)

const dateLayout = "2006-01-02"

// Default lookbacks when the model omits a date range. Indicators get a
// year of bars so long windows still have enough data behind them.
const (
	indicatorLookback = 365 * 24 * time.Hour
	candleLookback    = 90 * 24 * time.Hour
)

// Toolset binds the deterministic engines to callable tool handlers
type Toolset struct {
	market     interfaces.MarketService
	portfolio  interfaces.PortfolioService
	sentiment  interfaces.SentimentService
	users      interfaces.UserService
	usdIDRRate float64
}

// NewToolset creates the toolset over the given services
func NewToolset(market interfaces.MarketService, portfolio interfaces.PortfolioService, sentiment interfaces.SentimentService, users interfaces.UserService, usdIDRRate float64) *Toolset {
	return &Toolset{
		market:     market,
		portfolio:  portfolio,
		sentiment:  sentiment,
		users:      users,
		usdIDRRate: usdIDRRate,
	}
}

// BuildRegistry registers every tool the assistant may call
func (t *Toolset) BuildRegistry() (*tools.Registry, error) {
	r := tools.NewRegistry()

	type entry struct {
		schema  tools.Schema
		handler tools.Handler
	}

	entries := []entry{
		{
			schema: tools.Schema{
				Name:        "get_stock_price",
				Description: "Get the latest price and daily change for a stock ticker.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol, e.g. BBCA.JK or AAPL", Type: tools.ArgTypeString, Required: true},
				},
			},
			handler: t.getStockPrice,
		},
		{
			schema: tools.Schema{
				Name:        "calculate_sma",
				Description: "Calculate the simple moving average of closing prices over a window of trading days.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
					{Name: "window", Description: "Window length in trading days, e.g. 20 or 50", Type: tools.ArgTypeInteger, Required: true},
					{Name: "start_date", Description: "Range start, YYYY-MM-DD. Defaults to one year ago.", Type: tools.ArgTypeString},
					{Name: "end_date", Description: "Range end, YYYY-MM-DD. Defaults to today.", Type: tools.ArgTypeString},
				},
			},
			handler: t.calculateSMA,
		},
		{
			schema: tools.Schema{
				Name:        "calculate_ema",
				Description: "Calculate the latest exponential moving average of closing prices.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
					{Name: "window", Description: "Window length in trading days", Type: tools.ArgTypeInteger, Required: true},
				},
			},
			handler: t.calculateEMA,
		},
		{
			schema: tools.Schema{
				Name:        "calculate_rsi",
				Description: "Calculate the latest relative strength index (0-100).",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
					{Name: "window", Description: "Window length, default 14", Type: tools.ArgTypeInteger},
				},
			},
			handler: t.calculateRSI,
		},
		{
			schema: tools.Schema{
				Name:        "calculate_macd",
				Description: "Calculate the latest MACD (12/26/9) line, signal line, and histogram.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
				},
			},
			handler: t.calculateMACD,
		},
		{
			schema: tools.Schema{
				Name:        "fibonacci_retracement",
				Description: "Compute Fibonacci retracement levels between the highest high and lowest low in a date range.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
					{Name: "start_date", Description: "Range start, YYYY-MM-DD", Type: tools.ArgTypeString, Required: true},
					{Name: "end_date", Description: "Range end, YYYY-MM-DD", Type: tools.ArgTypeString, Required: true},
				},
			},
			handler: t.fibonacciRetracement,
		},
		{
			schema: tools.Schema{
				Name:        "get_candlestick_data",
				Description: "Get OHLC candlestick data for a ticker, with malformed bars flagged.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
					{Name: "start_date", Description: "Range start, YYYY-MM-DD. Defaults to 90 days ago.", Type: tools.ArgTypeString},
					{Name: "end_date", Description: "Range end, YYYY-MM-DD. Defaults to today.", Type: tools.ArgTypeString},
				},
			},
			handler: t.getCandlestickData,
		},
		{
			schema: tools.Schema{
				Name:        "plot_chart",
				Description: "Produce a price chart with SMA 20/50 overlays and key Fibonacci levels. The chart is shown to the user automatically.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
				},
			},
			handler: t.plotChart,
		},
		{
			schema: tools.Schema{
				Name:        "get_fundamental_data",
				Description: "Get fundamental metrics for a ticker: market cap, P/E, EPS, P/BV, sector.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
				},
			},
			handler: t.getFundamentals,
		},
		{
			schema: tools.Schema{
				Name:        "analyze_news_sentiment",
				Description: "Fetch recent headlines for a ticker and classify the overall sentiment.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
					{Name: "limit", Description: "Maximum headlines to consider, default 10", Type: tools.ArgTypeInteger},
				},
			},
			handler: t.analyzeNewsSentiment,
		},
		{
			schema: tools.Schema{
				Name:        "get_portfolio_snapshot",
				Description: "Value the user's holdings against live quotes, with totals in both IDR and USD.",
			},
			handler: t.getPortfolioSnapshot,
		},
		{
			schema: tools.Schema{
				Name:        "record_purchase",
				Description: "Record a stock purchase in the user's portfolio, updating the average cost basis.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
					{Name: "quantity", Description: "Number of shares, must be positive", Type: tools.ArgTypeNumber, Required: true},
					{Name: "price", Description: "Price paid per share, must be positive", Type: tools.ArgTypeNumber, Required: true},
					{Name: "currency", Description: "Purchase currency", Type: tools.ArgTypeString, Required: true, Enum: []string{"IDR", "USD"}},
					{Name: "date", Description: "Purchase date, YYYY-MM-DD. Defaults to today.", Type: tools.ArgTypeString},
				},
			},
			handler: t.recordPurchase,
		},
		{
			schema: tools.Schema{
				Name:        "remove_holding",
				Description: "Remove a holding from the user's portfolio entirely.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
				},
			},
			handler: t.removeHolding,
		},
		{
			schema: tools.Schema{
				Name:        "add_to_watchlist",
				Description: "Add a ticker to the user's watchlist.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
				},
			},
			handler: t.addToWatchlist,
		},
		{
			schema: tools.Schema{
				Name:        "remove_from_watchlist",
				Description: "Remove a ticker from the user's watchlist.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
				},
			},
			handler: t.removeFromWatchlist,
		},
		{
			schema: tools.Schema{
				Name:        "get_watchlist",
				Description: "List the tickers on the user's watchlist.",
			},
			handler: t.getWatchlist,
		},
		{
			schema: tools.Schema{
				Name:        "analyze_stock_recommendation",
				Description: "Run a full swing-trade analysis: trend, breakout, pullback, RSI, volume, Fibonacci levels, and an ATR-based stop suggestion.",
				Args: []tools.ArgSpec{
					{Name: "ticker", Description: "Stock symbol", Type: tools.ArgTypeString, Required: true},
				},
			},
			handler: t.analyzeRecommendation,
		},
	}

	for _, e := range entries {
		if err := r.Register(e.schema, e.handler); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (t *Toolset) getStockPrice(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	quote, err := t.market.GetQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{
		Kind: models.ResultKindIndicator,
		Indicator: &models.ScalarIndicator{
			Ticker: ticker,
			Name:   "price",
			Value:  quote.Price,
			Detail: fmt.Sprintf("change %+.2f (%+.2f%%)", quote.Change, quote.ChangePct),
		},
	}, nil
}

func (t *Toolset) calculateSMA(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	from, to, err := dateRange(args, indicatorLookback)
	if err != nil {
		return nil, err
	}
	series, err := t.market.GetHistory(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	sma, err := signals.SMASeries(series, tools.IntArg(args, "window", 20))
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{Kind: models.ResultKindSMA, SMA: sma}, nil
}

func (t *Toolset) calculateEMA(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	window := tools.IntArg(args, "window", 20)
	series, err := t.history(ctx, ticker)
	if err != nil {
		return nil, err
	}
	value, err := signals.EMA(series, window)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{
		Kind: models.ResultKindIndicator,
		Indicator: &models.ScalarIndicator{
			Ticker: ticker,
			Name:   "ema",
			Value:  value,
			Detail: fmt.Sprintf("EMA(%d)", window),
		},
	}, nil
}

func (t *Toolset) calculateRSI(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	window := tools.IntArg(args, "window", 14)
	series, err := t.history(ctx, ticker)
	if err != nil {
		return nil, err
	}
	value, err := signals.RSI(series, window)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{
		Kind: models.ResultKindIndicator,
		Indicator: &models.ScalarIndicator{
			Ticker: ticker,
			Name:   "rsi",
			Value:  value,
			Detail: signals.ClassifyRSI(value),
		},
	}, nil
}

func (t *Toolset) calculateMACD(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	series, err := t.history(ctx, ticker)
	if err != nil {
		return nil, err
	}
	macd, signal, hist, err := signals.MACD(series)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{
		Kind: models.ResultKindIndicator,
		Indicator: &models.ScalarIndicator{
			Ticker: ticker,
			Name:   "macd",
			Value:  macd,
			Detail: fmt.Sprintf("MACD: %.4f, Signal: %.4f, Hist: %.4f", macd, signal, hist),
		},
	}, nil
}

func (t *Toolset) fibonacciRetracement(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	start, err := parseDate(args, "start_date", time.Time{})
	if err != nil {
		return nil, err
	}
	end, err := parseDate(args, "end_date", time.Time{})
	if err != nil {
		return nil, err
	}
	series, err := t.market.GetHistory(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	levels, err := signals.FibonacciRetracement(series, start, end)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{Kind: models.ResultKindFibonacci, Fibonacci: levels}, nil
}

func (t *Toolset) getCandlestickData(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	from, to, err := dateRange(args, candleLookback)
	if err != nil {
		return nil, err
	}
	series, err := t.market.GetHistory(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	candles, err := signals.Candlestick(series)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{Kind: models.ResultKindCandlestick, Candles: candles}, nil
}

func (t *Toolset) plotChart(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	series, err := t.history(ctx, ticker)
	if err != nil {
		return nil, err
	}
	spec, err := signals.BuildChartSpec(series)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{Kind: models.ResultKindChart, Chart: spec}, nil
}

func (t *Toolset) getFundamentals(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	f, err := t.market.GetFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{Kind: models.ResultKindFundamentals, Fundamentals: f}, nil
}

func (t *Toolset) analyzeNewsSentiment(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	limit := tools.IntArg(args, "limit", 10)
	headlines, err := t.market.GetNews(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}
	result, err := t.sentiment.Summarize(ctx, ticker, headlines)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{Kind: models.ResultKindSentiment, Sentiment: result}, nil
}

func (t *Toolset) getPortfolioSnapshot(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	username, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := t.portfolio.Snapshot(ctx, username, t.usdIDRRate)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{Kind: models.ResultKindSnapshot, Snapshot: snapshot}, nil
}

func (t *Toolset) recordPurchase(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	username, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(args, "date", time.Now().UTC())
	if err != nil {
		return nil, err
	}
	holding, err := t.portfolio.RecordPurchase(ctx, username,
		tools.StringArg(args, "ticker", ""),
		tools.FloatArg(args, "quantity", 0),
		tools.FloatArg(args, "price", 0),
		tools.StringArg(args, "currency", ""),
		date)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{
		Kind: models.ResultKindInfo,
		Info: map[string]any{
			"status":   "purchase recorded",
			"ticker":   holding.Ticker,
			"quantity": holding.Quantity.InexactFloat64(),
			"avg_cost": holding.AvgCost.InexactFloat64(),
			"currency": holding.Currency,
		},
	}, nil
}

func (t *Toolset) removeHolding(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	username, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	ticker := normalizeTicker(args)
	if err := t.portfolio.RemoveHolding(ctx, username, ticker); err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{
		Kind: models.ResultKindInfo,
		Info: map[string]any{"status": "holding removed", "ticker": ticker},
	}, nil
}

func (t *Toolset) addToWatchlist(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	username, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	ticker := normalizeTicker(args)
	if err := t.users.AddToWatchlist(ctx, username, ticker); err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{
		Kind: models.ResultKindInfo,
		Info: map[string]any{"status": "added to watchlist", "ticker": ticker},
	}, nil
}

func (t *Toolset) removeFromWatchlist(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	username, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	ticker := normalizeTicker(args)
	if err := t.users.RemoveFromWatchlist(ctx, username, ticker); err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{
		Kind: models.ResultKindInfo,
		Info: map[string]any{"status": "removed from watchlist", "ticker": ticker},
	}, nil
}

func (t *Toolset) getWatchlist(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	username, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := t.users.GetWatchlist(ctx, username)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{
		Kind: models.ResultKindInfo,
		Info: map[string]any{"watchlist": list, "count": len(list)},
	}, nil
}

func (t *Toolset) analyzeRecommendation(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
	ticker := normalizeTicker(args)
	series, err := t.history(ctx, ticker)
	if err != nil {
		return nil, err
	}
	report, err := signals.BuildReport(series)
	if err != nil {
		return nil, err
	}
	return &models.AnalyticsResult{Kind: models.ResultKindReport, Report: report}, nil
}

// history fetches the default one-year lookback for a ticker
func (t *Toolset) history(ctx context.Context, ticker string) (*models.PriceSeries, error) {
	now := time.Now().UTC()
	return t.market.GetHistory(ctx, ticker, now.Add(-indicatorLookback), now)
}

func normalizeTicker(args map[string]any) string {
	return strings.ToUpper(strings.TrimSpace(tools.StringArg(args, "ticker", "")))
}

func requireUser(ctx context.Context) (string, error) {
	username, ok := tools.UserFrom(ctx)
	if !ok {
		return "", fmt.Errorf("no user bound to this conversation")
	}
	return username, nil
}

// parseDate reads a YYYY-MM-DD argument, returning fallback when absent.
// A present but malformed value is an argument error, not a silent default.
func parseDate(args map[string]any, name string, fallback time.Time) (time.Time, error) {
	raw := tools.StringArg(args, name, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", models.ErrInvalidArguments, name, raw)
	}
	return d, nil
}

// dateRange resolves optional start_date/end_date arguments against a
// default lookback ending today.
func dateRange(args map[string]any, lookback time.Duration) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, err := parseDate(args, "start_date", now.Add(-lookback))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(args, "end_date", now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date precedes start_date", models.ErrInvalidRange)
	}
	return from, to, nil
}
