package codeassist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/supportmesh/agent"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
)

// DefaultModel is the chat model the expert runs on unless configured.
const DefaultModel = "gpt-4o-mini"

// ExpertName is the assistant name used in logs and transcripts.
const ExpertName = "CodeExpert"

const expertInstruction = "You are an expert in analyzing and debugging code. Your job is to explain, debug, and suggest improvements."

const (
	explainPrompt  = "Explain the following Python code:\n\n%s"
	optimizePrompt = "Optimize the following Python function for efficiency:\n\n%s"
)

// ErrEmptyCode is returned when there is nothing to analyze.
var ErrEmptyCode = errors.New("codeassist: empty code")

// Options configures an Expert.
type Options struct {
	// Linter runs the static analysis pass of Review. Nil skips it.
	Linter Linter
	Logger logging.Logger
}

// Report is the combined outcome of Review.
type Report struct {
	Explanation  string `json:"explanation"`
	Lint         string `json:"lint"`
	Optimization string `json:"optimization"`
}

// Expert answers code questions with a single assistant.
type Expert struct {
	assistant *agent.Assistant
	linter    Linter
	logger    logging.Logger
}

// New creates an Expert on llm.
func New(llm model.Model, optFns ...func(o *Options)) *Expert {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	return &Expert{
		assistant: agent.NewAssistant(ExpertName, llm, func(o *agent.Options) {
			o.Description = "Explains, debugs and optimizes code."
			o.Instruction = agent.NewInstructionFromText(expertInstruction)
			o.Logger = logger
		}),
		linter: opts.Linter,
		logger: logger,
	}
}

// Explain asks the model to walk through code.
func (e *Expert) Explain(ctx context.Context, code string) (string, error) {
	return e.ask(ctx, "explain", explainPrompt, code)
}

// Optimize asks the model for a more efficient version of code.
func (e *Expert) Optimize(ctx context.Context, code string) (string, error) {
	return e.ask(ctx, "optimize", optimizePrompt, code)
}

// Lint runs the configured linter. Without a linter it reports that
// linting is unavailable.
func (e *Expert) Lint(ctx context.Context, code string) (string, error) {
	if e.linter == nil {
		return "Linting is not configured.", nil
	}
	out, err := e.linter.Lint(ctx, code)
	if err != nil {
		return "", fmt.Errorf("codeassist: lint: %w", err)
	}
	return out, nil
}

// Review explains, lints and optimizes code, in that order. The first
// failing pass aborts the review.
func (e *Expert) Review(ctx context.Context, code string) (*Report, error) {
	explanation, err := e.Explain(ctx, code)
	if err != nil {
		return nil, err
	}

	lint, err := e.Lint(ctx, code)
	if err != nil {
		return nil, err
	}

	optimization, err := e.Optimize(ctx, code)
	if err != nil {
		return nil, err
	}

	return &Report{Explanation: explanation, Lint: lint, Optimization: optimization}, nil
}

func (e *Expert) ask(ctx context.Context, task, prompt, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrEmptyCode
	}

	e.logger.Debug("codeassist.request", "task", task, "code.bytes", len(code))

	out, err := e.assistant.Ask(ctx, fmt.Sprintf(prompt, code))
	if err != nil {
		return "", fmt.Errorf("codeassist: %s: %w", task, err)
	}
	return out, nil
}
