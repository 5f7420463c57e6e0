package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumTool() *FunctionTool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
	return NewFunctionTool("sum", "Add numbers", params, func(_ *ToolContext, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})
}

func newTestContext(id string) *ToolContext {
	return NewToolContext(context.Background(), id, "TestAgent", nil)
}

func TestFunctionTool_Success(t *testing.T) {
	result, err := sumTool().Call(newTestContext("fc1"), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	_, err := sumTool().Call(newTestContext("fc2"), map[string]any{"a": 1.0})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.Equal(t, "sum", toolErr.Tool)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	failing := NewFunctionTool("fail", "Always fails", map[string]any{"type": "object"}, func(_ *ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := failing.Call(newTestContext("fc3"), map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	custom := NewFunctionTool("custom", "Custom", map[string]any{"type": "object"}, func(_ *ToolContext, _ map[string]any) (any, error) {
		return nil, NewToolError("custom", "nope", "CUSTOM")
	})

	_, err := custom.Call(nil, map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "CUSTOM", toolErr.Code)
	assert.Equal(t, "tool error [CUSTOM] in custom: nope", toolErr.Error())
}

type statusArgs struct {
	OrderID string `json:"order_id" description:"Order identifier"`
	Verbose *bool  `json:"verbose"`
}

func TestTypedTool_DecodesArguments(t *testing.T) {
	var seen statusArgs
	typed := NewTypedTool("order_status_tool", "Check order status", func(tc *ToolContext, args statusArgs) (any, error) {
		seen = args
		return "ok:" + tc.Agent, nil
	})

	assert.Equal(t, []string{"order_id"}, typed.Parameters()["required"])

	result, err := typed.Call(newTestContext("fc4"), map[string]any{"order_id": "ORD-1"})
	require.NoError(t, err)
	assert.Equal(t, "ok:TestAgent", result)
	assert.Equal(t, "ORD-1", seen.OrderID)
	assert.Nil(t, seen.Verbose)
}

func TestRegistry_RegisterAndDefinitions(t *testing.T) {
	r := NewRegistry(sumTool())

	err := r.Register(sumTool())
	assert.Error(t, err)

	require.NoError(t, r.Register(NewFunctionTool("echo", "Echo", map[string]any{"type": "object"}, func(_ *ToolContext, args map[string]any) (any, error) {
		return args, nil
	})))

	assert.Equal(t, []string{"sum", "echo"}, r.Names())
	assert.Equal(t, 2, r.Len())

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "sum", defs[0].Function.Name)
	assert.Equal(t, "Add numbers", defs[0].Function.Description)

	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry(sumTool(), NewFunctionTool("panics", "Panics", map[string]any{"type": "object"}, func(_ *ToolContext, _ map[string]any) (any, error) {
		panic("kaboom")
	}))
	tc := newTestContext("fc5")

	result, err := r.Dispatch(tc, "sum", `{"a": 1, "b": 2}`)
	require.NoError(t, err)
	assert.Equal(t, 3.0, result)

	tests := []struct {
		name     string
		tool     string
		args     string
		wantCode string
	}{
		{name: "unknown tool", tool: "nope", args: "{}", wantCode: CodeNotFound},
		{name: "malformed json", tool: "sum", args: "{not json", wantCode: CodeValidation},
		{name: "missing args", tool: "sum", args: "", wantCode: CodeValidation},
		{name: "panic", tool: "panics", args: "", wantCode: CodeExecution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Dispatch(tc, tt.tool, tt.args)
			var toolErr *ToolError
			require.ErrorAs(t, err, &toolErr)
			assert.Equal(t, tt.wantCode, toolErr.Code)
		})
	}
}
