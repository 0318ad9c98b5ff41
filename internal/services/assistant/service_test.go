package assistant

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
	"github.com/fernandokurniawan23/finassist/internal/tools"
)

// scriptedLLM returns queued responses in order and records every request.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []*models.ModelResponse
	errs      []error
	calls     int
	forceText []bool
	turnsSeen [][]models.Turn
}

func (m *scriptedLLM) Complete(ctx context.Context, turns []models.Turn, decls []*genai.FunctionDeclaration, opts interfaces.CompleteOptions) (*models.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.forceText = append(m.forceText, opts.ForceText)
	snapshot := make([]models.Turn, len(turns))
	copy(snapshot, turns)
	m.turnsSeen = append(m.turnsSeen, snapshot)

	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return &models.ModelResponse{Text: "done"}, nil
}

func (m *scriptedLLM) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return "neutral\nno strong signal", nil
}

// stubUsers allows everything and counts usage.
type stubUsers struct {
	mu          sync.Mutex
	allowed     bool
	status      string
	usageCounts int
}

func (u *stubUsers) Register(ctx context.Context, username, password string) (*models.User, error) {
	return nil, fmt.Errorf("not implemented")
}
func (u *stubUsers) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	return nil, fmt.Errorf("not implemented")
}
func (u *stubUsers) CheckQuota(ctx context.Context, username string) (bool, string, error) {
	return u.allowed, u.status, nil
}
func (u *stubUsers) IncrementUsage(ctx context.Context, username string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.usageCounts++
	return nil
}
func (u *stubUsers) UpgradeToPro(ctx context.Context, username string) error    { return nil }
func (u *stubUsers) AddToWatchlist(ctx context.Context, username, ticker string) error {
	return nil
}
func (u *stubUsers) RemoveFromWatchlist(ctx context.Context, username, ticker string) error {
	return nil
}
func (u *stubUsers) GetWatchlist(ctx context.Context, username string) ([]string, error) {
	return nil, nil
}

type handlerLog struct {
	mu    sync.Mutex
	names []string
}

func (l *handlerLog) record(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *handlerLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.names)
}

func newTestRegistry(t *testing.T, log *handlerLog) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry()

	priceSchema := tools.Schema{
		Name:        "get_stock_price",
		Description: "latest price",
		Args: []tools.ArgSpec{
			{Name: "ticker", Type: tools.ArgTypeString, Required: true},
		},
	}
	require.NoError(t, registry.Register(priceSchema, func(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
		log.record("get_stock_price")
		return &models.AnalyticsResult{
			Kind:      models.ResultKindIndicator,
			Indicator: &models.ScalarIndicator{Ticker: tools.StringArg(args, "ticker", ""), Name: "price", Value: 123.45},
		}, nil
	}))

	chartSchema := tools.Schema{
		Name:        "plot_chart",
		Description: "chart",
		Args: []tools.ArgSpec{
			{Name: "ticker", Type: tools.ArgTypeString, Required: true},
		},
	}
	require.NoError(t, registry.Register(chartSchema, func(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
		log.record("plot_chart")
		return &models.AnalyticsResult{
			Kind:  models.ResultKindChart,
			Chart: &models.ChartSpec{Ticker: tools.StringArg(args, "ticker", "")},
		}, nil
	}))

	slowSchema := tools.Schema{
		Name:        "slow_tool",
		Description: "sleeps before answering",
		Args: []tools.ArgSpec{
			{Name: "ticker", Type: tools.ArgTypeString, Required: true},
		},
	}
	require.NoError(t, registry.Register(slowSchema, func(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
		time.Sleep(30 * time.Millisecond)
		log.record("slow_tool")
		return &models.AnalyticsResult{
			Kind:      models.ResultKindIndicator,
			Indicator: &models.ScalarIndicator{Ticker: "SLOW", Name: "price", Value: 1},
		}, nil
	}))

	failSchema := tools.Schema{
		Name:        "failing_tool",
		Description: "always fails",
	}
	require.NoError(t, registry.Register(failSchema, func(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error) {
		log.record("failing_tool")
		return nil, fmt.Errorf("%w: TICK", models.ErrUnknownTicker)
	}))

	return registry
}

func newTestService(t *testing.T, llm *scriptedLLM, log *handlerLog) *Service {
	t.Helper()
	svc := NewService(llm, newTestRegistry(t, log), &stubUsers{allowed: true, status: "ok"}, common.NewSilentLogger())
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestHandleMessage_TextOnly(t *testing.T) {
	llm := &scriptedLLM{responses: []*models.ModelResponse{{Text: "Hello there"}}}
	svc := newTestService(t, llm, &handlerLog{})

	id := svc.NewSession("alice")
	reply, err := svc.HandleMessage(context.Background(), id, "hi")

	require.NoError(t, err)
	assert.Equal(t, "Hello there", reply.Narrative)
	assert.Empty(t, reply.ToolsUsed)
	assert.Equal(t, 1, llm.calls)

	turns, err := svc.History(id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, models.RoleAssistant, turns[1].Role)
}

func TestHandleMessage_ToolRoundTrip(t *testing.T) {
	llm := &scriptedLLM{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCallRequest{
			{ID: "1", Name: "get_stock_price", Args: map[string]any{"ticker": "BBCA.JK"}},
		}},
		{Text: "BBCA.JK trades at 123.45"},
	}}
	log := &handlerLog{}
	svc := newTestService(t, llm, log)

	id := svc.NewSession("alice")
	reply, err := svc.HandleMessage(context.Background(), id, "price of BBCA?")

	require.NoError(t, err)
	assert.Equal(t, "BBCA.JK trades at 123.45", reply.Narrative)
	assert.Equal(t, []string{"get_stock_price"}, reply.ToolsUsed)
	assert.Equal(t, 1, log.count())
	assert.Equal(t, 2, llm.calls)

	turns, err := svc.History(id)
	require.NoError(t, err)
	// user, assistant(tool calls), tool result, assistant(text)
	require.Len(t, turns, 4)
	assert.Equal(t, models.RoleAssistant, turns[1].Role)
	require.Len(t, turns[1].ToolCalls, 1)
	assert.Equal(t, models.RoleTool, turns[2].Role)
	require.NotNil(t, turns[2].ToolResult)
	assert.Empty(t, turns[2].ToolResult.Error)
	assert.Equal(t, 123.45, turns[2].ToolResult.Content["value"])

	// The second model call saw the tool result turn
	require.Len(t, llm.turnsSeen[1], 3)
	assert.Equal(t, models.RoleTool, llm.turnsSeen[1][2].Role)
}

func TestHandleMessage_InvalidCallNeverExecutes(t *testing.T) {
	llm := &scriptedLLM{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCallRequest{
			{ID: "1", Name: "get_stock_price", Args: map[string]any{}},             // missing required ticker
			{ID: "2", Name: "no_such_tool", Args: map[string]any{"ticker": "X"}},   // unknown tool
			{ID: "3", Name: "get_stock_price", Args: map[string]any{"ticker": 7.0}}, // wrong type
		}},
		{Text: "sorry, something went wrong"},
	}}
	log := &handlerLog{}
	svc := newTestService(t, llm, log)

	id := svc.NewSession("alice")
	reply, err := svc.HandleMessage(context.Background(), id, "price?")

	require.NoError(t, err)
	assert.Equal(t, 0, log.count(), "no handler may run for invalid calls")
	assert.Empty(t, reply.ToolsUsed)

	turns, err := svc.History(id)
	require.NoError(t, err)
	// user, assistant, three synthesized error results, assistant
	require.Len(t, turns, 6)
	for _, turn := range turns[2:5] {
		require.Equal(t, models.RoleTool, turn.Role)
		require.NotNil(t, turn.ToolResult)
		assert.NotEmpty(t, turn.ToolResult.Error)
		assert.Nil(t, turn.ToolResult.Content)
	}
}

func TestHandleMessage_ConcurrentResultsKeepRequestOrder(t *testing.T) {
	llm := &scriptedLLM{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCallRequest{
			{ID: "1", Name: "slow_tool", Args: map[string]any{"ticker": "SLOW"}},
			{ID: "2", Name: "get_stock_price", Args: map[string]any{"ticker": "FAST"}},
		}},
		{Text: "both done"},
	}}
	svc := newTestService(t, llm, &handlerLog{})

	id := svc.NewSession("alice")
	_, err := svc.HandleMessage(context.Background(), id, "both")
	require.NoError(t, err)

	turns, err := svc.History(id)
	require.NoError(t, err)
	require.Len(t, turns, 5)
	assert.Equal(t, "slow_tool", turns[2].ToolResult.Name)
	assert.Equal(t, "get_stock_price", turns[3].ToolResult.Name)
}

func TestHandleMessage_HandlerFailureBecomesErrorResult(t *testing.T) {
	llm := &scriptedLLM{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCallRequest{
			{ID: "1", Name: "failing_tool", Args: map[string]any{}},
		}},
		{Text: "that ticker does not exist"},
	}}
	svc := newTestService(t, llm, &handlerLog{})

	id := svc.NewSession("alice")
	reply, err := svc.HandleMessage(context.Background(), id, "price of TICK?")

	require.NoError(t, err)
	assert.Empty(t, reply.ToolsUsed, "failed tools are not counted as used")

	turns, _ := svc.History(id)
	require.Len(t, turns, 4)
	assert.Contains(t, turns[2].ToolResult.Error, "unknown ticker")
}

func TestHandleMessage_BoundedToolRounds(t *testing.T) {
	toolCall := []models.ToolCallRequest{
		{ID: "1", Name: "get_stock_price", Args: map[string]any{"ticker": "X"}},
	}
	llm := &scriptedLLM{responses: []*models.ModelResponse{
		{ToolCalls: toolCall},
		{ToolCalls: toolCall},
		{Text: "forced summary"},
	}}
	svc := newTestService(t, llm, &handlerLog{})

	id := svc.NewSession("alice")
	reply, err := svc.HandleMessage(context.Background(), id, "keep digging")

	require.NoError(t, err)
	assert.Equal(t, "forced summary", reply.Narrative)
	require.Equal(t, 3, llm.calls)
	assert.False(t, llm.forceText[0])
	assert.False(t, llm.forceText[1])
	assert.True(t, llm.forceText[2], "the terminating call must disable tools")
}

func TestHandleMessage_RetriesOnceThenSucceeds(t *testing.T) {
	llm := &scriptedLLM{
		errs:      []error{fmt.Errorf("transient: %w", models.ErrProviderUnavailable)},
		responses: []*models.ModelResponse{nil, {Text: "recovered"}},
	}
	svc := newTestService(t, llm, &handlerLog{})

	id := svc.NewSession("alice")
	reply, err := svc.HandleMessage(context.Background(), id, "hi")

	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.Narrative)
	assert.Equal(t, 2, llm.calls)
}

func TestHandleMessage_FallbackKeepsUserTurn(t *testing.T) {
	llm := &scriptedLLM{errs: []error{
		fmt.Errorf("down"), fmt.Errorf("still down"),
	}}
	svc := newTestService(t, llm, &handlerLog{})

	id := svc.NewSession("alice")
	reply, err := svc.HandleMessage(context.Background(), id, "hello?")

	require.NoError(t, err)
	assert.Equal(t, fallbackNarrative, reply.Narrative)
	assert.Equal(t, 2, llm.calls)

	turns, _ := svc.History(id)
	require.Len(t, turns, 2)
	assert.Equal(t, "hello?", turns[0].Text)
}

func TestHandleMessage_QuotaExceeded(t *testing.T) {
	llm := &scriptedLLM{}
	svc := NewService(llm, newTestRegistry(t, &handlerLog{}), &stubUsers{allowed: false, status: "daily limit of 5 messages reached"}, common.NewSilentLogger())

	id := svc.NewSession("alice")
	_, err := svc.HandleMessage(context.Background(), id, "one more")

	require.ErrorIs(t, err, models.ErrQuotaExceeded)
	assert.Equal(t, 0, llm.calls)

	turns, _ := svc.History(id)
	assert.Empty(t, turns, "rejected messages leave no trace in history")
}

func TestHandleMessage_ChartCapture(t *testing.T) {
	llm := &scriptedLLM{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCallRequest{
			{ID: "1", Name: "plot_chart", Args: map[string]any{"ticker": "BBCA.JK"}},
		}},
		{Text: "here is the chart"},
	}}
	svc := newTestService(t, llm, &handlerLog{})

	id := svc.NewSession("alice")
	reply, err := svc.HandleMessage(context.Background(), id, "chart please")

	require.NoError(t, err)
	require.NotNil(t, reply.Chart)
	assert.Equal(t, "BBCA.JK", reply.Chart.Ticker)

	last := svc.LastChart(id)
	require.NotNil(t, last)
	assert.Equal(t, "BBCA.JK", last.Ticker)
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService(t, &scriptedLLM{}, &handlerLog{})

	id := svc.NewSession("bob")
	owner, err := svc.SessionOwner(id)
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)

	svc.EndSession(id)
	_, err = svc.SessionOwner(id)
	assert.Error(t, err)

	_, err = svc.History("nonexistent")
	assert.Error(t, err)
}

func TestHandleMessage_UsageCountedOncePerReply(t *testing.T) {
	llm := &scriptedLLM{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCallRequest{
			{ID: "1", Name: "get_stock_price", Args: map[string]any{"ticker": "X"}},
		}},
		{Text: "answer"},
	}}
	users := &stubUsers{allowed: true, status: "ok"}
	svc := NewService(llm, newTestRegistry(t, &handlerLog{}), users, common.NewSilentLogger())
	svc.sleep = func(time.Duration) {}

	id := svc.NewSession("alice")
	_, err := svc.HandleMessage(context.Background(), id, "go")
	require.NoError(t, err)

	assert.Equal(t, 1, users.usageCounts)
}
