package models

import "time"

// Role identifies who produced a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one message in the conversation history. A tool-result turn always
// immediately follows the assistant turn that requested it.
type Turn struct {
	Role       Role              `json:"role"`
	Text       string            `json:"text,omitempty"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`  // assistant turn requesting execution
	ToolResult *ToolResult       `json:"tool_result,omitempty"` // tool-result turn payload
	Timestamp  time.Time         `json:"timestamp"`
}

// ToolCallRequest is a model-requested tool invocation. Untrusted until
// validated against the registry schema.
type ToolCallRequest struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is the structured outcome of one tool call, successful or not.
type ToolResult struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name"`
	Content map[string]any `json:"content,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ModelResponse is the language model's answer to one completion request:
// either final text or a batch of tool-call requests.
type ModelResponse struct {
	Text      string            `json:"text,omitempty"`
	ToolCalls []ToolCallRequest `json:"tool_calls,omitempty"`
}

// HasToolCalls reports whether the model asked for tool execution
func (r *ModelResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// AssistantReply is the engine's final answer for one user message.
type AssistantReply struct {
	Narrative string             `json:"narrative"`
	Chart     *ChartSpec         `json:"chart,omitempty"`
	Snapshot  *PortfolioSnapshot `json:"snapshot,omitempty"`
	ToolsUsed []string           `json:"tools_used,omitempty"`
}
