package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/supportmesh/core"
)

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// It answers with a canned completion keyed by the text of the last content,
// or echoes the input when no completion is registered.
type MockModel struct {
	info      Info
	mu        sync.RWMutex
	responses map[string]string
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		inputText := req.Contents[len(req.Contents)-1].Text()

		m.mu.RLock()
		full := m.responses[inputText]
		m.mu.RUnlock()
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: core.NewTextContent(core.RoleAssistant, string(r))}:
				}
			}
		}
		respCh <- Response{
			Content:      core.NewTextContent(core.RoleAssistant, full),
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// Step is one scripted model turn: either content to return or an error.
type Step struct {
	Content core.Content
	Err     error
}

// TextStep scripts a plain assistant text reply.
func TextStep(text string) Step {
	return Step{Content: core.NewTextContent(core.RoleAssistant, text)}
}

// CallStep scripts an assistant turn requesting the given tool calls.
func CallStep(calls ...core.FunctionCall) Step {
	parts := make([]core.Part, 0, len(calls))
	for _, fc := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	return Step{Content: core.Content{Role: core.RoleAssistant, Parts: parts}}
}

// ErrorStep scripts a failing model call.
func ErrorStep(err error) Step { return Step{Err: err} }

// ErrScriptExhausted is returned once every scripted step has been consumed.
var ErrScriptExhausted = errors.New("scripted model exhausted")

// ScriptedModel replays a fixed sequence of steps, one per Generate call, and
// records every request it receives. Safe for concurrent use.
type ScriptedModel struct {
	info     Info
	mu       sync.Mutex
	steps    []Step
	requests []Request
}

// NewScriptedModel creates a ScriptedModel replaying steps in order.
func NewScriptedModel(steps ...Step) *ScriptedModel {
	return &ScriptedModel{
		info:  Info{Name: "scripted", Provider: "mock", SupportsTools: true},
		steps: steps,
	}
}

// Generate implements Model.
func (m *ScriptedModel) Generate(_ context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var (
		step Step
		ok   bool
	)
	if len(m.steps) > 0 {
		step, m.steps, ok = m.steps[0], m.steps[1:], true
	}
	m.mu.Unlock()

	switch {
	case !ok:
		errCh <- ErrScriptExhausted
	case step.Err != nil:
		errCh <- step.Err
	default:
		respCh <- Response{Content: step.Content, FinishReason: "stop"}
	}
	close(respCh)
	close(errCh)
	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

// Requests returns a copy of the requests received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Remaining reports how many scripted steps are left.
func (m *ScriptedModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

// FuncModel adapts a plain function into a Model. Handy when a test needs
// the reply to depend on the request (e.g. a selector prompt).
type FuncModel func(ctx context.Context, req Request) (core.Content, error)

// Generate implements Model.
func (f FuncModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)
	content, err := f(ctx, req)
	if err != nil {
		errCh <- err
	} else {
		respCh <- Response{Content: content, FinishReason: "stop"}
	}
	close(respCh)
	close(errCh)
	return respCh, errCh
}

// Info implements Model.
func (f FuncModel) Info() Info { return Info{Name: "func", Provider: "mock", SupportsTools: true} }
