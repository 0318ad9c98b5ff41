// Package interfaces defines service contracts for finassist
package interfaces

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// MarketDataClient provides access to the external market data provider
type MarketDataClient interface {
	// GetHistory retrieves daily price history for a ticker, date ascending
	GetHistory(ctx context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error)

	// GetQuote retrieves the latest price for a ticker
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// GetFundamentals retrieves key fundamental metrics
	GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)

	// GetNews retrieves recent headlines for a ticker
	GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error)
}

// CompleteOptions configures one language model completion request
type CompleteOptions struct {
	// ForceText disables tool calling so the model must produce a final
	// narrative. Used to terminate the bounded tool-round loop.
	ForceText bool
}

// LLMClient provides access to the language model. Its structured outputs
// are untrusted until schema-validated.
type LLMClient interface {
	// Complete sends the conversation history plus tool declarations and
	// returns either final text or tool-call requests.
	Complete(ctx context.Context, turns []models.Turn, decls []*genai.FunctionDeclaration, opts CompleteOptions) (*models.ModelResponse, error)

	// GenerateContent generates text from a standalone prompt (no history,
	// no tools). Used for stateless classification.
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
