package tool

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/supportmesh/model"
)

// Registry is an explicit dispatch table from tool name to Tool. Insertion
// order is kept so the definitions sent to a model are stable.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry returns a registry holding tools. Duplicate names panic since
// they are a wiring mistake.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds t. It fails on an empty or already registered name.
func (r *Registry) Register(t Tool) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("tool: cannot register unnamed tool")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool: %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
	return nil
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Definitions renders the registered tools for a model request.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Dispatch decodes rawArgs (a JSON object, possibly empty) and calls the
// named tool. An unknown name yields a NOT_FOUND ToolError, malformed JSON a
// VALIDATION_ERROR and a panic inside the tool an EXECUTION_ERROR.
func (r *Registry) Dispatch(toolCtx *ToolContext, name, rawArgs string) (result any, err error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, NewToolError(name, fmt.Sprintf("unknown tool %q", name), CodeNotFound)
	}

	args := map[string]any{}
	if trimmed := strings.TrimSpace(rawArgs); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return nil, &ToolError{
				Tool:    name,
				Message: fmt.Sprintf("invalid JSON arguments: %v", err),
				Code:    CodeValidation,
			}
		}
		if args == nil {
			args = map[string]any{}
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			toolCtx.logger().Error("tool.call.panic", "tool", name, "panic", fmt.Sprint(rec))
			result = nil
			err = NewToolError(name, fmt.Sprintf("panic: %v", rec), CodeExecution)
		}
	}()

	return t.Call(toolCtx, args)
}
