package tool

import (
	"context"

	"github.com/hupe1980/supportmesh/logging"
)

// ToolContext carries per-call data into a tool implementation: the request
// context, the model supplied call id, the name of the calling assistant and
// a logger.
type ToolContext struct {
	Context        context.Context
	FunctionCallID string
	Agent          string
	Logger         logging.Logger
}

// NewToolContext builds a ToolContext. A nil ctx becomes context.Background
// and a nil logger discards output.
func NewToolContext(ctx context.Context, functionCallID, agent string, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ToolContext{
		Context:        ctx,
		FunctionCallID: functionCallID,
		Agent:          agent,
		Logger:         logging.OrNoOp(logger),
	}
}

func (tc *ToolContext) logger() logging.Logger {
	if tc == nil {
		return logging.NoOpLogger{}
	}
	return logging.OrNoOp(tc.Logger)
}
