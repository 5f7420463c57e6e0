package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/supportmesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"product_inquiry", ProductInquiry},
		{"Order Placement", OrderPlacement},
		{"  ORDER-STATUS. ", OrderStatus},
		{"complaint", Complaint},
		{"The label is: order_status", OrderStatus},
		{"weather", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	tests := []struct {
		text string
		want Intent
	}{
		{"I want to buy Samsung Galaxy Tab of 3 quantity as a guest.", OrderPlacement},
		{"What is the status of order ORD-1?", OrderStatus},
		{"I received a defective product for ORD-1", Complaint},
		{"How much is the Dell XPS 15?", ProductInquiry},
		{"Hello there", Unknown},
	}

	for _, tt := range tests {
		got, err := c.Classify(ctx, tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestModelClassifier(t *testing.T) {
	m := model.NewScriptedModel(model.TextStep("Complaint."))
	c := NewModelClassifier(m, nil)

	got, err := c.Classify(context.Background(), "My order arrived broken")
	require.NoError(t, err)
	assert.Equal(t, Complaint, got)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "order_placement")
	assert.Equal(t, "My order arrived broken", reqs[0].Contents[0].Text())
}

func TestModelClassifier_Error(t *testing.T) {
	boom := errors.New("boom")
	c := NewModelClassifier(model.NewScriptedModel(model.ErrorStep(boom)), nil)

	got, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Unknown, got)
}
