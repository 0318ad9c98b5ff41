// Package assistant is the tool-orchestration engine: it owns conversation
// state, validates and executes model-requested tool calls against the
// deterministic engines, and bounds the tool-round loop.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
	"github.com/fernandokurniawan23/finassist/internal/tools"
)

const (
	// maxToolRounds bounds how many times the model may request tool
	// execution for one user message before being forced to answer in text.
	maxToolRounds = 2

	retryDelay = 500 * time.Millisecond
)

// fallbackNarrative is returned when the model stays unreachable after a
// retry. The user turn is kept so a resend picks up where it left off.
const fallbackNarrative = "I couldn't reach the analysis model just now. " +
	"Your message has been saved — please try again in a moment."

// Service implements AssistantService
type Service struct {
	llm      interfaces.LLMClient
	registry *tools.Registry
	users    interfaces.UserService
	logger   *common.Logger

	sessionsMu sync.RWMutex
	sessions   map[string]*session

	sleep func(time.Duration) // injectable for tests
}

// NewService creates the orchestration engine
func NewService(llm interfaces.LLMClient, registry *tools.Registry, users interfaces.UserService, logger *common.Logger) *Service {
	return &Service{
		llm:      llm,
		registry: registry,
		users:    users,
		logger:   logger,
		sessions: make(map[string]*session),
		sleep:    time.Sleep,
	}
}

// HandleMessage runs one full round trip for a user message: model call,
// validated tool execution, follow-up model call, final reply. Tool rounds
// are bounded; the terminating call disables tool calling entirely.
func (s *Service) HandleMessage(ctx context.Context, sessionID, userText string) (*models.AssistantReply, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	allowed, status, err := s.users.CheckQuota(ctx, sess.username)
	if err != nil {
		return nil, fmt.Errorf("quota check failed: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s", models.ErrQuotaExceeded, status)
	}

	sess.appendTurn(models.Turn{Role: models.RoleUser, Text: userText})

	ctx = tools.WithUser(ctx, sess.username)
	decls := s.registry.Declarations()
	var toolsUsed []string
	var chart *models.ChartSpec
	var snapshot *models.PortfolioSnapshot

	for round := 0; ; round++ {
		forceText := round >= maxToolRounds

		resp, err := s.completeWithRetry(ctx, sess.turns, decls, interfaces.CompleteOptions{ForceText: forceText})
		if err != nil {
			s.logger.Error().Err(err).Str("session", sessionID).Msg("Model unreachable after retry")
			sess.appendTurn(models.Turn{Role: models.RoleAssistant, Text: fallbackNarrative})
			return &models.AssistantReply{Narrative: fallbackNarrative}, nil
		}

		if !resp.HasToolCalls() {
			sess.appendTurn(models.Turn{Role: models.RoleAssistant, Text: resp.Text})
			if chart != nil {
				sess.lastChart = chart
			}
			if err := s.users.IncrementUsage(ctx, sess.username); err != nil {
				s.logger.Warn().Err(err).Str("username", sess.username).Msg("Failed to count usage")
			}
			return &models.AssistantReply{
				Narrative: resp.Text,
				Chart:     chart,
				Snapshot:  snapshot,
				ToolsUsed: toolsUsed,
			}, nil
		}

		sess.appendTurn(models.Turn{Role: models.RoleAssistant, Text: resp.Text, ToolCalls: resp.ToolCalls})

		results := s.executeBatch(ctx, resp.ToolCalls)
		for _, res := range results {
			r := res
			sess.appendTurn(models.Turn{Role: models.RoleTool, ToolResult: &r.result})
			if r.result.Error == "" {
				toolsUsed = append(toolsUsed, r.result.Name)
			}
			if r.analytics != nil {
				switch r.analytics.Kind {
				case models.ResultKindChart:
					chart = r.analytics.Chart
				case models.ResultKindSnapshot:
					snapshot = r.analytics.Snapshot
				}
			}
		}
	}
}

// completeWithRetry calls the model once, and once more after a short delay
// on failure. Context cancellation is not retried.
func (s *Service) completeWithRetry(ctx context.Context, turns []models.Turn, decls []*genai.FunctionDeclaration, opts interfaces.CompleteOptions) (*models.ModelResponse, error) {
	resp, err := s.llm.Complete(ctx, turns, decls, opts)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	s.logger.Warn().Err(err).Msg("Model call failed, retrying once")
	s.sleep(retryDelay)

	return s.llm.Complete(ctx, turns, decls, opts)
}

// executedCall pairs the wire-shaped tool result with the typed analytics
// payload so the reply assembler can pull out charts and snapshots.
type executedCall struct {
	result    models.ToolResult
	analytics *models.AnalyticsResult
}

// executeBatch validates every requested call and runs the valid ones
// concurrently. Results come back in request order. Invalid calls are never
// executed; they produce synthesized error results the model can correct.
func (s *Service) executeBatch(ctx context.Context, calls []models.ToolCallRequest) []executedCall {
	results := make([]executedCall, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		tool, ok := s.registry.Get(call.Name)
		if !ok {
			results[i].result = models.ToolResult{
				ID:    call.ID,
				Name:  call.Name,
				Error: fmt.Sprintf("unknown tool %q", call.Name),
			}
			continue
		}
		if err := tool.Schema.Validate(call.Args); err != nil {
			results[i].result = models.ToolResult{
				ID:    call.ID,
				Name:  call.Name,
				Error: err.Error(),
			}
			continue
		}

		wg.Add(1)
		go func(idx int, c models.ToolCallRequest, t tools.Tool) {
			defer wg.Done()
			results[idx] = s.runTool(ctx, c, t)
		}(i, call, tool)
	}
	wg.Wait()

	return results
}

// runTool executes one validated call, converting handler failures and
// panics into error results rather than aborting the batch.
func (s *Service) runTool(ctx context.Context, call models.ToolCallRequest, tool tools.Tool) (out executedCall) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("tool", call.Name).Interface("panic", r).Msg("Tool handler panicked")
			out = executedCall{result: models.ToolResult{
				ID:    call.ID,
				Name:  call.Name,
				Error: fmt.Sprintf("internal error in tool %q", call.Name),
			}}
		}
	}()

	started := time.Now()
	analytics, err := tool.Handler(ctx, call.Args)
	elapsed := time.Since(started)

	if err != nil {
		s.logger.Warn().Err(err).Str("tool", call.Name).Dur("elapsed", elapsed).Msg("Tool call failed")
		return executedCall{result: models.ToolResult{
			ID:    call.ID,
			Name:  call.Name,
			Error: err.Error(),
		}}
	}

	s.logger.Debug().Str("tool", call.Name).Dur("elapsed", elapsed).Msg("Tool call completed")
	return executedCall{
		result: models.ToolResult{
			ID:      call.ID,
			Name:    call.Name,
			Content: analytics.Payload(),
		},
		analytics: analytics,
	}
}

// Ensure Service implements AssistantService
var _ interfaces.AssistantService = (*Service)(nil)
