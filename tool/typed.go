package tool

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/supportmesh/internal/util"
)

// NewTypedTool wraps fn as a FunctionTool whose schema is derived from the
// argument struct T. Validated arguments are decoded into a T before fn runs;
// optional fields should be pointers or tagged omitempty.
func NewTypedTool[T any](
	name, description string,
	fn func(toolCtx *ToolContext, args T) (any, error),
) *FunctionTool {
	var zero T
	return NewFunctionTool(name, description, util.CreateSchema(zero), func(toolCtx *ToolContext, raw map[string]any) (any, error) {
		args, err := decodeArgs[T](raw)
		if err != nil {
			return nil, &ToolError{Tool: name, Message: err.Error(), Code: CodeValidation}
		}
		return fn(toolCtx, args)
	})
}

func decodeArgs[T any](raw map[string]any) (T, error) {
	var args T
	b, err := json.Marshal(raw)
	if err != nil {
		return args, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(b, &args); err != nil {
		return args, fmt.Errorf("decode arguments: %w", err)
	}
	return args, nil
}
