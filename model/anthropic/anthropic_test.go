package anthropic

import (
	"testing"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_ToolResultsFollowAsUserTurn(t *testing.T) {
	contents := []core.Content{
		core.NewTextContent(core.RoleUser, "Is the Galaxy tab in stock?"),
		{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID: "tu_1", Name: "product_inquiry_tool", Arguments: `{"product_name":"Galaxy"}`,
		}}}},
		{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID: "tu_1", Name: "product_inquiry_tool", Response: "Samsung Galaxy Tab S9: Price = $900, Stock = 12 units.",
		}}}},
	}

	msgs := buildMessages(contents)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Equal(t, "user", string(msgs[2].Role))
	require.Len(t, msgs[2].Content, 1)
	assert.NotNil(t, msgs[2].Content[0].OfToolResult)
}

func TestSystemBlocks_MergesInstructionsAndSystemContents(t *testing.T) {
	blocks := systemBlocks(model.Request{
		Instructions: "You are a planning agent.",
		Contents:     []core.Content{core.NewTextContent(core.RoleSystem, "extra")},
	})
	require.Len(t, blocks, 2)
	assert.Equal(t, "You are a planning agent.", blocks[0].Text)
}

func TestBuildTools_CopiesSchema(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Function: model.FunctionDefinition{
			Name:        "order_status_tool",
			Description: "Check order status",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"order_id": map[string]any{"type": "string"}},
				"required":   []any{"order_id"},
			},
		},
	}})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "order_status_tool", tools[0].OfTool.Name)
	assert.Equal(t, []string{"order_id"}, tools[0].OfTool.InputSchema.Required)
}
