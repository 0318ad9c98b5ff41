package sentiment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
)

type fixedLLM struct {
	reply string
	err   error
	calls int
}

func (f *fixedLLM) Complete(context.Context, []models.Turn, []*genai.FunctionDeclaration, interfaces.CompleteOptions) (*models.ModelResponse, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fixedLLM) GenerateContent(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func headlines(titles ...string) []models.NewsItem {
	out := make([]models.NewsItem, len(titles))
	for i, title := range titles {
		out[i] = models.NewsItem{Title: title, Published: time.Now()}
	}
	return out
}

func TestSummarize_EmptyHeadlinesSkipsModel(t *testing.T) {
	llm := &fixedLLM{}
	svc := NewService(llm, common.NewSilentLogger())

	result, err := svc.Summarize(context.Background(), "BBCA.JK", nil)

	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, result.Label)
	assert.Equal(t, "no recent coverage", result.Justification)
	assert.Equal(t, 0, llm.calls, "empty input must not hit the model")
}

func TestSummarize_ParsesLabelAndJustification(t *testing.T) {
	llm := &fixedLLM{reply: "positive\nStrong earnings beat across the board."}
	svc := NewService(llm, common.NewSilentLogger())

	result, err := svc.Summarize(context.Background(), "BBCA.JK", headlines("Bank posts record profit"))

	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, result.Label)
	assert.Equal(t, "Strong earnings beat across the board.", result.Justification)
	assert.Equal(t, 1, result.HeadlineCount)
}

func TestSummarize_UnparseableLabelFallsBackToNeutral(t *testing.T) {
	llm := &fixedLLM{reply: "I think the news looks somewhat mixed overall."}
	svc := NewService(llm, common.NewSilentLogger())

	result, err := svc.Summarize(context.Background(), "BBCA.JK", headlines("Some headline"))

	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, result.Label)
}

func TestSummarize_CaseAndPunctuationTolerant(t *testing.T) {
	cases := []struct {
		reply string
		want  models.SentimentLabel
	}{
		{"Positive\nGood news.", models.SentimentPositive},
		{"NEGATIVE\nBad news.", models.SentimentNegative},
		{"negative.\nBad news.", models.SentimentNegative},
		{"  neutral  \nFlat quarter.", models.SentimentNeutral},
	}

	for _, tc := range cases {
		svc := NewService(&fixedLLM{reply: tc.reply}, common.NewSilentLogger())
		result, err := svc.Summarize(context.Background(), "X", headlines("h"))
		require.NoError(t, err)
		assert.Equal(t, tc.want, result.Label, "reply %q", tc.reply)
	}
}

func TestSummarize_ModelFailure(t *testing.T) {
	llm := &fixedLLM{err: models.ErrProviderUnavailable}
	svc := NewService(llm, common.NewSilentLogger())

	_, err := svc.Summarize(context.Background(), "X", headlines("h"))
	require.Error(t, err)
}
