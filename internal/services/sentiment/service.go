// Package sentiment aggregates recent headlines for a ticker into a coarse
// qualitative label.
package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
)

// promptTemplate constrains the model to one of the three labels followed by
// a one-line justification.
const promptTemplate = `Classify the overall sentiment of the following
headlines about %s. Answer with exactly one word on the first line —
positive, neutral, or negative — followed by a single-sentence justification
on the second line.

Headlines:
%s`

// Service implements SentimentService
type Service struct {
	llm    interfaces.LLMClient
	logger *common.Logger
}

// NewService creates a new sentiment service
func NewService(llm interfaces.LLMClient, logger *common.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Summarize maps headlines to {positive, neutral, negative} plus a short
// justification. Empty input short-circuits without a model call.
func (s *Service) Summarize(ctx context.Context, ticker string, headlines []models.NewsItem) (*models.SentimentResult, error) {
	if len(headlines) == 0 {
		return &models.SentimentResult{
			Ticker:        ticker,
			Label:         models.SentimentNeutral,
			Justification: "no recent coverage",
		}, nil
	}

	var sb strings.Builder
	for _, h := range headlines {
		sb.WriteString("- ")
		sb.WriteString(h.Title)
		sb.WriteString("\n")
	}

	text, err := s.llm.GenerateContent(ctx, fmt.Sprintf(promptTemplate, ticker, sb.String()))
	if err != nil {
		return nil, fmt.Errorf("sentiment classification failed: %w", err)
	}

	label, justification := parseClassification(text)

	s.logger.Debug().
		Str("ticker", ticker).
		Str("label", string(label)).
		Int("headlines", len(headlines)).
		Msg("Sentiment classified")

	return &models.SentimentResult{
		Ticker:        ticker,
		Label:         label,
		Justification: justification,
		HeadlineCount: len(headlines),
	}, nil
}

// parseClassification reads the constrained output defensively: an
// unrecognisable first line falls back to neutral.
func parseClassification(text string) (models.SentimentLabel, string) {
	lines := strings.SplitN(strings.TrimSpace(text), "\n", 2)

	label := models.SentimentNeutral
	switch strings.ToLower(strings.TrimSpace(strings.Trim(lines[0], ".*"))) {
	case "positive":
		label = models.SentimentPositive
	case "negative":
		label = models.SentimentNegative
	case "neutral":
		label = models.SentimentNeutral
	}

	justification := "classification unavailable"
	if len(lines) > 1 && strings.TrimSpace(lines[1]) != "" {
		justification = strings.TrimSpace(lines[1])
	}

	return label, justification
}

// Ensure Service implements SentimentService
var _ interfaces.SentimentService = (*Service)(nil)
