package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderArgs struct {
	ProductName string `json:"product_name" description:"Name of the product"`
	Quantity    *int   `json:"quantity" description:"Number of units"`
	CustomerID  string `json:"customer_id,omitempty"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(orderArgs{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "product_name")
	assert.Contains(t, props, "quantity")
	assert.Contains(t, props, "customer_id")
	assert.Equal(t, "integer", props["quantity"].(map[string]any)["type"])
	assert.Equal(t, []string{"product_name"}, schema["required"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5.0}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")

	err = ValidateParameters(map[string]any{"x": 1.5}, schema)
	assert.Error(t, err)
}

func TestValidateParameters_GoRequiredSlice(t *testing.T) {
	err := ValidateParameters(map[string]any{}, CreateSchema(orderArgs{}))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "product_name", vErr.Field)
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate("Hello {{.name}} & {{upper .team}}", map[string]any{"name": "Ada", "team": "support"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada & SUPPORT", out)

	_, err = RenderTemplate("{{.broken", nil)
	assert.Error(t, err)
}

func TestCreateSchema_SkipsIgnoredAndUnexported(t *testing.T) {
	type args struct {
		OrderID  string `json:"order_id"`
		Internal string `json:"-"`
		hidden   string
	}

	schema := CreateSchema(&args{})
	props := schema["properties"].(map[string]any)
	assert.Len(t, props, 1)
	assert.Contains(t, props, "order_id")

	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, CreateSchema("not a struct"))
}
