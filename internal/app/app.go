// Package app wires configuration, storage, clients, and services into a
// runnable application core shared by the server binary and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fernandokurniawan23/finassist/internal/clients/eodhd"
	"github.com/fernandokurniawan23/finassist/internal/clients/gemini"
	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/services/assistant"
	"github.com/fernandokurniawan23/finassist/internal/services/market"
	"github.com/fernandokurniawan23/finassist/internal/services/portfolio"
	"github.com/fernandokurniawan23/finassist/internal/services/sentiment"
	"github.com/fernandokurniawan23/finassist/internal/services/users"
	"github.com/fernandokurniawan23/finassist/internal/storage/badger"
	"github.com/fernandokurniawan23/finassist/internal/tools"
)

// App holds all initialized clients and services. It is the shared core
// used by cmd/finassist-server and integration tests.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	MarketClient     interfaces.MarketDataClient
	LLMClient        interfaces.LLMClient
	MarketService    interfaces.MarketService
	PortfolioService interfaces.PortfolioService
	SentimentService interfaces.SentimentService
	UserService      interfaces.UserService
	AssistantService interfaces.AssistantService
	Registry         *tools.Registry
	StartupTime      time.Time

	scheduler *quoteScheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and all services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Config resolution: explicit path, FINASSIST_CONFIG, binary dir, dev fallback
	if configPath == "" {
		configPath = os.Getenv("FINASSIST_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "finassist.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/finassist.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if config.Clients.EODHD.APIKey == "" {
		return nil, fmt.Errorf("EODHD API key not configured (set EODHD_API_KEY)")
	}
	if config.Clients.Gemini.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured (set GEMINI_API_KEY)")
	}

	eodhdClient := eodhd.NewClient(config.Clients.EODHD.APIKey,
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	)

	geminiClient, err := gemini.NewClient(ctx, config.Clients.Gemini.APIKey,
		gemini.WithModel(config.Clients.Gemini.Model),
		gemini.WithLogger(logger),
	)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	marketService := market.NewService(eodhdClient, storageManager.MarketCache(), logger)
	portfolioService := portfolio.NewService(storageManager.Holdings(), marketService, logger)
	sentimentService := sentiment.NewService(geminiClient, logger)
	userService := users.NewService(storageManager, config.Assistant.FreeDailyQuota, logger)

	toolset := assistant.NewToolset(marketService, portfolioService, sentimentService, userService, config.Assistant.USDIDRRate)
	registry, err := toolset.BuildRegistry()
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}

	assistantService := assistant.NewService(geminiClient, registry, userService, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		MarketClient:     eodhdClient,
		LLMClient:        geminiClient,
		MarketService:    marketService,
		PortfolioService: portfolioService,
		SentimentService: sentimentService,
		UserService:      userService,
		AssistantService: assistantService,
		Registry:         registry,
		StartupTime:      startupStart,
	}

	logger.Info().
		Str("version", common.GetVersion()).
		Int("tools", len(registry.AllSchemas())).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// StartQuoteScheduler launches the cron-driven quote refresh for held
// tickers.
func (a *App) StartQuoteScheduler() error {
	sched, err := newQuoteScheduler(a.Config.Assistant.QuoteRefresh, a.Storage, a.MarketService, a.Logger)
	if err != nil {
		return err
	}
	a.scheduler = sched
	sched.start()
	return nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close storage.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.stop()
		a.scheduler = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
