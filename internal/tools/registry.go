package tools

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// Handler executes a validated tool call and returns the structured result
type Handler func(ctx context.Context, args map[string]any) (*models.AnalyticsResult, error)

// Tool pairs a schema with its handler
type Tool struct {
	Schema  Schema
	Handler Handler
}

// Registry maps tool names to typed handlers behind a common calling
// convention. Populated once at startup; read-only afterwards, so lookups
// need no locking.
type Registry struct {
	tools map[string]Tool
	order []string // registration order, for stable schema listings
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Called once per tool at process start; duplicate
// names are a programming error.
func (r *Registry) Register(schema Schema, handler Handler) error {
	if schema.Name == "" {
		return fmt.Errorf("tool schema requires a name")
	}
	if handler == nil {
		return fmt.Errorf("tool %q requires a handler", schema.Name)
	}
	if _, exists := r.tools[schema.Name]; exists {
		return fmt.Errorf("tool %q already registered", schema.Name)
	}
	r.tools[schema.Name] = Tool{Schema: schema, Handler: handler}
	r.order = append(r.order, schema.Name)
	return nil
}

// Get returns the tool for the given name
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// AllSchemas returns every registered schema in registration order
func (r *Registry) AllSchemas() []Schema {
	out := make([]Schema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Schema)
	}
	return out
}

// Declarations returns the genai function declarations for every tool,
// the contract surfaced to the language model.
func (r *Registry) Declarations() []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Schema.Declaration())
	}
	return out
}
