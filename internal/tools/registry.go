package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ExecutorFunc defines a server-side tool executor. The returned value must be
// JSON serialisable.
type ExecutorFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is a named, schema-described function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
	Execute     ExecutorFunc
}

// Registry stores tools keyed by name, preserving registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a new tool.
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if tool.Execute == nil {
		return fmt.Errorf("executor is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool already registered for %s", tool.Name)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// MustRegister adds a tool or panics.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Subset returns a registry holding only the named tools.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	sub := NewRegistry()
	for _, name := range names {
		tool, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown tool %s", name)
		}
		if err := sub.Register(tool); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// Definitions returns the tools in the shape the chat completions API expects.
func (r *Registry) Definitions() []openai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return defs
}

// Execute runs the executor for the tool name and marshals its result.
func (r *Registry) Execute(ctx context.Context, toolName string, args json.RawMessage) (json.RawMessage, error) {
	if toolName == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	tool, ok := r.Get(toolName)
	if !ok {
		return nil, fmt.Errorf("no executor registered for %s", toolName)
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	result, err := tool.Execute(ctx, args)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("tool %s returned a value that is not JSON serialisable: %w", toolName, err)
	}
	return out, nil
}

// Call is Execute with failures folded into an {"error": ...} result so the
// model can see them. failed reports whether that happened.
func (r *Registry) Call(ctx context.Context, toolName string, args json.RawMessage) (result json.RawMessage, failed bool) {
	out, err := r.Execute(ctx, toolName, args)
	if err != nil {
		return ErrorResult(err.Error()), true
	}
	return out, false
}

// ErrorResult builds the {"error": msg} result object.
func ErrorResult(msg string) json.RawMessage {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return out
}

func decodeArgs(args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}
