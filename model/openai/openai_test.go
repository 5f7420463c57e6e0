package openai

import (
	"strings"
	"testing"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_AttachesToolResponsesAfterCalls(t *testing.T) {
	req := model.Request{
		Instructions: "You check order status using the order_status_tool.",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "Where is ORD-1?"),
			{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID: "call-1", Name: "order_status_tool", Arguments: `{"order_id":"ORD-1"}`,
			}}}},
			{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
				ID: "call-1", Name: "order_status_tool", Response: "Order ID: ORD-1, Status: Shipped.",
			}}}},
		},
	}

	responses, order := collectToolResponses(req)
	require.Equal(t, []string{"call-1"}, order)

	msgs := buildMessages(req, responses, order)
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	assert.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "call-1", msgs[3].OfTool.ToolCallID)
}

func TestBuildParams_IncludesTools(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test" })
	req := model.Request{Tools: []model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "product_inquiry_tool",
			Description: "Check product information using product name",
			Parameters:  map[string]any{"type": "object"},
		},
	}}}

	params := m.buildParams(req, nil)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "product_inquiry_tool", params.Tools[0].Function.Name)
	assert.Equal(t, "gpt-4o", m.Info().Name)
}

func TestFinalChunk_OrdersToolCallsByIndex(t *testing.T) {
	var b strings.Builder
	b.WriteString("partial text")
	agg := map[int64]*aggCall{
		1: {id: "b", name: "second"},
		0: {id: "a", name: "first", args: "{}"},
	}

	resp := finalChunk("tool_calls", &b, agg)
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "second", calls[1].Name)
	assert.Equal(t, "partial text", resp.Content.Text())
	assert.False(t, resp.Partial)
}
