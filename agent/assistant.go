package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
	"github.com/hupe1980/supportmesh/tool"
)

// ToolRecorder observes tool executions. metrics.Collector satisfies it.
type ToolRecorder interface {
	ObserveToolCall(tool, outcome string, d time.Duration)
}

// Tool call outcomes passed to ToolRecorder.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Options configures an Assistant.
type Options struct {
	Description string
	Instruction Instruction
	Tools       []tool.Tool

	// ReflectOnToolUse makes the assistant call the model again with the
	// tool results instead of returning them verbatim.
	ReflectOnToolUse bool
	// MaxToolIterations bounds model round trips while reflecting.
	MaxToolIterations int
	// MaxHistoryMessages keeps only the most recent chat messages; 0 keeps all.
	MaxHistoryMessages int

	Logger   logging.Logger
	Recorder ToolRecorder
}

// Assistant is a named, single-purpose wrapper around a model: a fixed
// system instruction plus an optional set of tools. It keeps no
// conversation state; every Reply receives the full history.
type Assistant struct {
	name        string
	description string
	instruction Instruction
	llm         model.Model
	tools       *tool.Registry

	reflectOnToolUse   bool
	maxToolIterations  int
	maxHistoryMessages int

	logger   logging.Logger
	recorder ToolRecorder
}

// NewAssistant creates an assistant. Without an explicit instruction it
// introduces itself by name.
func NewAssistant(name string, llm model.Model, optFns ...func(o *Options)) *Assistant {
	opts := Options{
		Instruction:       NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		MaxToolIterations: 5,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxToolIterations < 1 {
		opts.MaxToolIterations = 1
	}

	return &Assistant{
		name:               name,
		description:        opts.Description,
		instruction:        opts.Instruction,
		llm:                llm,
		tools:              tool.NewRegistry(opts.Tools...),
		reflectOnToolUse:   opts.ReflectOnToolUse,
		maxToolIterations:  opts.MaxToolIterations,
		maxHistoryMessages: opts.MaxHistoryMessages,
		logger:             logging.OrNoOp(opts.Logger),
		recorder:           opts.Recorder,
	}
}

// Name returns the assistant's unique name within a team.
func (a *Assistant) Name() string { return a.name }

// Description returns the role summary shown to speaker selectors.
func (a *Assistant) Description() string { return a.description }

// Model returns the backing model.
func (a *Assistant) Model() model.Model { return a.llm }

// Tools returns the names of the bound tools.
func (a *Assistant) Tools() []string { return a.tools.Names() }

// Response is the outcome of one Reply.
type Response struct {
	// Message is the chat message to append to the shared thread.
	Message core.Message
	// Inner holds tool call requests and results produced on the way.
	Inner []core.Message
	// Usage sums token usage across model calls when reported.
	Usage model.TokenUsage
}

// Reply produces the assistant's next message given the conversation so far.
// Tool failures are handed back to the model (or into the summary) as error
// text; only model errors abort.
func (a *Assistant) Reply(ctx context.Context, history []core.Message) (*Response, error) {
	start := time.Now()
	a.logger.Debug("assistant.reply.start", "assistant", a.name, "history", len(history))

	instructions, err := a.instruction.Render(ctx, map[string]any{
		"name":        a.name,
		"description": a.description,
		"tools":       a.tools.Names(),
	})
	if err != nil {
		return nil, fmt.Errorf("assistant %s: instruction: %w", a.name, err)
	}

	req := model.Request{
		Instructions: instructions,
		Contents:     a.buildContents(history),
	}
	if a.tools.Len() > 0 {
		req.Tools = a.tools.Definitions()
	}

	out := &Response{}

	for iteration := 1; ; iteration++ {
		resp, err := model.GenerateContent(ctx, a.llm, req)
		if err != nil {
			a.logger.Error("assistant.reply.model_error", "assistant", a.name, "error", err.Error())
			return nil, fmt.Errorf("assistant %s: %w", a.name, err)
		}
		addUsage(&out.Usage, resp.Usage)

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			out.Message = core.NewAssistantMessage(a.name, resp.Content.Text())
			break
		}

		callMsg := core.NewFunctionCallMessage(a.name, resp.Content.Text(), calls...)
		out.Inner = append(out.Inner, callMsg)

		results := a.executeTools(ctx, calls)
		out.Inner = append(out.Inner, results...)

		if !a.reflectOnToolUse || iteration >= a.maxToolIterations {
			out.Message = core.NewAssistantMessage(a.name, toolSummary(results))
			break
		}

		req.Contents = append(req.Contents, callMsg.Content, mergeToolResults(results))
	}

	a.logger.Info("assistant.reply.complete",
		"assistant", a.name,
		"tool_events", len(out.Inner),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return out, nil
}

// Ask sends a single user prompt and returns the final text.
func (a *Assistant) Ask(ctx context.Context, prompt string) (string, error) {
	resp, err := a.Reply(ctx, []core.Message{core.NewUserMessage(prompt)})
	if err != nil {
		return "", err
	}
	return resp.Message.Text(), nil
}

// buildContents maps the shared thread onto model roles: the assistant's own
// messages become assistant turns, everybody else's user turns.
func (a *Assistant) buildContents(history []core.Message) []core.Content {
	chat := core.ChatMessages(history)
	if a.maxHistoryMessages > 0 && len(chat) > a.maxHistoryMessages {
		chat = chat[len(chat)-a.maxHistoryMessages:]
	}

	contents := make([]core.Content, 0, len(chat))
	for _, m := range chat {
		role := core.RoleUser
		if m.Source == a.name {
			role = core.RoleAssistant
		}
		contents = append(contents, core.NewTextContent(role, m.Text()))
	}
	return contents
}

// executeTools runs calls one after another, in the order the model asked.
func (a *Assistant) executeTools(ctx context.Context, calls []core.FunctionCall) []core.Message {
	results := make([]core.Message, 0, len(calls))
	for _, fc := range calls {
		if ctx.Err() != nil {
			results = append(results, core.NewFunctionResponseMessage(a.name, fc.ID, fc.Name, nil, ctx.Err()))
			continue
		}

		toolCtx := tool.NewToolContext(ctx, fc.ID, a.name, a.logger)
		start := time.Now()
		result, err := a.tools.Dispatch(toolCtx, fc.Name, fc.Arguments)
		dur := time.Since(start)

		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeError
			var toolErr *tool.ToolError
			if !errors.As(err, &toolErr) {
				a.logger.Warn("assistant.tool.error", "assistant", a.name, "tool", fc.Name, "error", err.Error())
			}
		}
		if a.recorder != nil {
			a.recorder.ObserveToolCall(fc.Name, outcome, dur)
		}

		a.logger.Info("assistant.tool.executed",
			"assistant", a.name,
			"tool", fc.Name,
			"fc_id", fc.ID,
			"duration_ms", dur.Milliseconds(),
			"error", err != nil,
		)

		results = append(results, core.NewFunctionResponseMessage(a.name, fc.ID, fc.Name, result, err))
	}
	return results
}

func toolSummary(results []core.Message) string {
	lines := make([]string, 0, len(results))
	for _, m := range results {
		for _, fr := range m.FunctionResponses() {
			lines = append(lines, fr.Text())
		}
	}
	return strings.Join(lines, "\n")
}

func mergeToolResults(results []core.Message) core.Content {
	content := core.Content{Role: core.RoleTool}
	for _, m := range results {
		content.Parts = append(content.Parts, m.Content.Parts...)
	}
	return content
}

func addUsage(sum *model.TokenUsage, u *model.TokenUsage) {
	if u == nil {
		return
	}
	sum.PromptTokens += u.PromptTokens
	sum.CompletionTokens += u.CompletionTokens
	sum.TotalTokens += u.TotalTokens
}
