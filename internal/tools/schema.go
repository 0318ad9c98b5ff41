// Package tools declares the callable analytics functions, their argument
// schemas, and the validation boundary between the language model and the
// deterministic engines.
package tools

import (
	"fmt"
	"math"

	"google.golang.org/genai"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// ArgType enumerates supported argument types
type ArgType string

const (
	ArgTypeString  ArgType = "string"
	ArgTypeNumber  ArgType = "number"
	ArgTypeInteger ArgType = "integer"
	ArgTypeBoolean ArgType = "boolean"
)

// ArgSpec describes one tool argument
type ArgSpec struct {
	Name        string
	Description string
	Type        ArgType
	Required    bool
	Enum        []string // allowed values for string args, nil if unconstrained
}

// Schema describes a callable tool: its name, purpose, and argument contract.
// Immutable once registered.
type Schema struct {
	Name        string
	Description string
	Args        []ArgSpec
}

// Validate checks a model-supplied argument mapping against the schema.
// Any failure returns models.ErrInvalidArguments with detail; the call must
// never be executed on failure.
func (s Schema) Validate(args map[string]any) error {
	known := make(map[string]ArgSpec, len(s.Args))
	for _, spec := range s.Args {
		known[spec.Name] = spec
	}

	for name := range args {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%w: unknown argument %q for tool %q", models.ErrInvalidArguments, name, s.Name)
		}
	}

	for _, spec := range s.Args {
		val, present := args[spec.Name]
		if !present {
			if spec.Required {
				return fmt.Errorf("%w: missing required argument %q for tool %q", models.ErrInvalidArguments, spec.Name, s.Name)
			}
			continue
		}
		if err := checkType(spec, val); err != nil {
			return fmt.Errorf("%w: argument %q of tool %q: %v", models.ErrInvalidArguments, spec.Name, s.Name, err)
		}
	}

	return nil
}

func checkType(spec ArgSpec, val any) error {
	switch spec.Type {
	case ArgTypeString:
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
		if len(spec.Enum) > 0 {
			for _, allowed := range spec.Enum {
				if str == allowed {
					return nil
				}
			}
			return fmt.Errorf("value %q not in allowed set %v", str, spec.Enum)
		}
	case ArgTypeNumber:
		switch val.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("expected number, got %T", val)
		}
	case ArgTypeInteger:
		switch v := val.(type) {
		case int, int64:
		case float64:
			// JSON numbers arrive as float64; accept whole values only
			if v != math.Trunc(v) {
				return fmt.Errorf("expected integer, got %v", v)
			}
		default:
			return fmt.Errorf("expected integer, got %T", val)
		}
	case ArgTypeBoolean:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", val)
		}
	default:
		return fmt.Errorf("unsupported argument type %q", spec.Type)
	}
	return nil
}

// Declaration converts the schema to the genai function-calling wire shape
func (s Schema) Declaration() *genai.FunctionDeclaration {
	properties := make(map[string]*genai.Schema, len(s.Args))
	var required []string

	for _, arg := range s.Args {
		prop := &genai.Schema{
			Type:        genaiType(arg.Type),
			Description: arg.Description,
		}
		if len(arg.Enum) > 0 {
			prop.Enum = arg.Enum
		}
		properties[arg.Name] = prop
		if arg.Required {
			required = append(required, arg.Name)
		}
	}

	return &genai.FunctionDeclaration{
		Name:        s.Name,
		Description: s.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
			Required:   required,
		},
	}
}

func genaiType(t ArgType) genai.Type {
	switch t {
	case ArgTypeNumber:
		return genai.TypeNumber
	case ArgTypeInteger:
		return genai.TypeInteger
	case ArgTypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// StringArg extracts a string argument, or the fallback when absent
func StringArg(args map[string]any, name, fallback string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return fallback
}

// IntArg extracts an integer argument, accepting JSON float64 values
func IntArg(args map[string]any, name string, fallback int) int {
	switch v := args[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// FloatArg extracts a numeric argument
func FloatArg(args map[string]any, name string, fallback float64) float64 {
	switch v := args[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}
