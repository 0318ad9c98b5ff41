// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
)

const DefaultModel = "gemini-2.5-flash"

// systemInstruction keeps the model grounded: it may only request the
// registered functions and must narrate their results, never raw data.
const systemInstruction = `You are an expert, friendly stock analysis assistant.
Use only the functions provided to you for any numeric or market question.
Never fabricate prices, indicator values, or portfolio figures — request the
matching function instead, then explain the returned result in plain language.`

// Client implements the LLMClient interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Complete sends the conversation history plus tool declarations and returns
// either final text or tool-call requests.
func (c *Client) Complete(ctx context.Context, turns []models.Turn, decls []*genai.FunctionDeclaration, opts interfaces.CompleteOptions) (*models.ModelResponse, error) {
	contents := convertTurns(turns)

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}

	if len(decls) > 0 && !opts.ForceText {
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	if opts.ForceText {
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeNone,
			},
		}
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("turns", len(turns)).
		Int("tools", len(decls)).
		Bool("force_text", opts.ForceText).
		Msg("Gemini completion request")

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return parseResponse(result)
}

// GenerateContent generates text from a standalone prompt
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("Generating content")

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	resp, err := parseResponse(result)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// convertTurns maps conversation turns onto the genai wire format.
// Tool results travel back as function-response parts in a user-role content.
func convertTurns(turns []models.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))

	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: turn.Text}},
			})

		case models.RoleAssistant:
			parts := make([]*genai.Part, 0, 1+len(turn.ToolCalls))
			if turn.Text != "" {
				parts = append(parts, &genai.Part{Text: turn.Text})
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Args,
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})

		case models.RoleTool:
			if turn.ToolResult == nil {
				continue
			}
			response := turn.ToolResult.Content
			if turn.ToolResult.Error != "" {
				response = map[string]any{"error": turn.ToolResult.Error}
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       turn.ToolResult.ID,
						Name:     turn.ToolResult.Name,
						Response: response,
					},
				}},
			})
		}
	}

	return contents
}

// parseResponse extracts text and tool-call requests from a completion
func parseResponse(result *genai.GenerateContentResponse) (*models.ModelResponse, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated")
	}

	resp := &models.ModelResponse{}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			resp.Text += part.Text
		}
		if part.FunctionCall != nil {
			resp.ToolCalls = append(resp.ToolCalls, models.ToolCallRequest{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}

	return resp, nil
}

// Ensure Client implements LLMClient
var _ interfaces.LLMClient = (*Client)(nil)
