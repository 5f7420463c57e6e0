package testutil

import (
	"strconv"

	"github.com/hupe1980/supportmesh/core"
)

// ThreadBuilder provides a fluent helper for constructing conversation
// histories in tests.
//
//	history := testutil.NewThread("Where is ORD-1?").
//		Assistant("PlanningAgent", "1. OrderInquiryAgent : check ORD-1").
//		ToolCall("OrderInquiryAgent", "order_status_tool", `{"order_id":"ORD-1"}`).
//		Build()
type ThreadBuilder struct {
	msgs   []core.Message
	nextID int
}

// NewThread starts a thread whose first message is the user task.
func NewThread(task string) *ThreadBuilder {
	return &ThreadBuilder{msgs: []core.Message{core.NewUserMessage(task)}}
}

// User appends a user message (chainable).
func (b *ThreadBuilder) User(text string) *ThreadBuilder {
	b.msgs = append(b.msgs, core.NewUserMessage(text))
	return b
}

// Assistant appends a chat message authored by source (chainable).
func (b *ThreadBuilder) Assistant(source, text string) *ThreadBuilder {
	b.msgs = append(b.msgs, core.NewAssistantMessage(source, text))
	return b
}

// ToolCall appends a tool call request followed by an empty successful
// result, the shape an assistant leaves behind (chainable).
func (b *ThreadBuilder) ToolCall(source, name, args string) *ThreadBuilder {
	b.nextID++
	id := "call-" + strconv.Itoa(b.nextID)
	b.msgs = append(b.msgs,
		core.NewFunctionCallMessage(source, "", core.FunctionCall{ID: id, Name: name, Arguments: args}),
		core.NewFunctionResponseMessage(source, id, name, "", nil),
	)
	return b
}

// Build returns a copy of the accumulated messages.
func (b *ThreadBuilder) Build() []core.Message {
	return append([]core.Message(nil), b.msgs...)
}
