package team

import (
	"fmt"
	"testing"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thread(texts ...string) []core.Message {
	msgs := []core.Message{core.NewUserMessage("task")}
	for i, t := range texts {
		msgs = append(msgs, core.NewAssistantMessage(fmt.Sprintf("Agent%d", i), t))
	}
	return msgs
}

func TestMaxMessageTermination(t *testing.T) {
	term := MaxMessageTermination(3)

	_, stop := term.Check(thread("a"))
	assert.False(t, stop)

	reason, stop := term.Check(thread("a", "b"))
	assert.True(t, stop)
	assert.Equal(t, "Maximum number of messages 3 reached, current message count: 3", reason)
}

func TestMaxMessageTermination_IgnoresToolEvents(t *testing.T) {
	history := testutil.NewThread("Where is ORD-1?").
		Assistant("PlanningAgent", "1. OrderInquiryAgent : check ORD-1").
		ToolCall("OrderInquiryAgent", "order_status_tool", `{"order_id":"ORD-1"}`).
		Build()
	require.Len(t, history, 4)

	_, stop := MaxMessageTermination(3).Check(history)
	assert.False(t, stop)

	_, stop = MaxMessageTermination(2).Check(history)
	assert.True(t, stop)
}

func TestTextMentionTermination(t *testing.T) {
	term := TextMentionTermination("TERMINATE")

	_, stop := term.Check(thread("working on it"))
	assert.False(t, stop)

	reason, stop := term.Check(thread("working on it", "Here you go. TERMINATE"))
	assert.True(t, stop)
	assert.Equal(t, "Text 'TERMINATE' mentioned", reason)
}

func TestOr_CeilingStopsWithoutSentinel(t *testing.T) {
	term := Or(TextMentionTermination("TERMINATE"), MaxMessageTermination(10))

	texts := make([]string, 0, 9)
	for i := 0; i < 8; i++ {
		texts = append(texts, "still going")
		_, stop := term.Check(thread(texts...))
		assert.False(t, stop, "stopped early at %d messages", len(texts)+1)
	}

	texts = append(texts, "still going")
	reason, stop := term.Check(thread(texts...))
	assert.True(t, stop)
	assert.Contains(t, reason, "Maximum number of messages 10")
}

func TestOr_SentinelStopsBelowCeiling(t *testing.T) {
	term := Or(TextMentionTermination("TERMINATE"), MaxMessageTermination(10))

	reason, stop := term.Check(thread("plan", "Done. TERMINATE"))
	assert.True(t, stop)
	assert.Equal(t, "Text 'TERMINATE' mentioned", reason)
}

func TestAnd(t *testing.T) {
	term := And(TextMentionTermination("TERMINATE"), MaxMessageTermination(3))

	_, stop := term.Check(thread("TERMINATE"))
	assert.False(t, stop)

	reason, stop := term.Check(thread("x", "TERMINATE"))
	assert.True(t, stop)
	assert.Contains(t, reason, "; ")

	_, stop = And().Check(thread("x"))
	assert.False(t, stop)
}
