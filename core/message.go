package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceUser is the Source of messages typed by the end user.
const SourceUser = "user"

// Message is one entry of a conversation history: who sent it (Source) and
// what was said (Content). After creation it should be treated as immutable;
// histories only ever grow by appending.
//
// Tool traffic (function calls and their responses) is carried as Messages
// too so it can be replayed to a model, but coordinators keep it out of the
// shared chat thread (see IsToolEvent).
type Message struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Content   Content   `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message authored by source with the given content.
func NewMessage(source string, content Content) Message {
	return Message{
		ID:        NewID(),
		Source:    source,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewTextMessage creates a single text part message.
func NewTextMessage(source, role, text string) Message {
	return NewMessage(source, NewTextContent(role, text))
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return NewTextMessage(SourceUser, RoleUser, text)
}

// NewAssistantMessage creates an assistant text message authored by source.
func NewAssistantMessage(source, text string) Message {
	return NewTextMessage(source, RoleAssistant, text)
}

// NewFunctionCallMessage records an assistant requesting one or more tool calls.
// Any text the model produced alongside the calls is kept as a leading part.
func NewFunctionCallMessage(source, text string, calls ...FunctionCall) Message {
	parts := make([]Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, TextPart{Text: text})
	}
	for _, fc := range calls {
		parts = append(parts, FunctionCallPart{FunctionCall: fc})
	}
	return NewMessage(source, Content{Role: RoleAssistant, Parts: parts})
}

// NewFunctionResponseMessage records the outcome of a tool call. If err is
// non-nil its message is copied into the response Error field.
func NewFunctionResponseMessage(source, id, name string, result any, err error) Message {
	fr := FunctionResponse{ID: id, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	return NewMessage(source, Content{Role: RoleTool, Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}})
}

// NewID generates a new unique identifier for messages and sessions.
func NewID() string { return uuid.NewString() }

// Text returns the concatenated text parts of the message.
func (m Message) Text() string { return m.Content.Text() }

// FunctionCalls returns any FunctionCall parts preserving their order.
func (m Message) FunctionCalls() []FunctionCall { return m.Content.FunctionCalls() }

// FunctionResponses returns any FunctionResponse parts preserving their order.
func (m Message) FunctionResponses() []FunctionResponse { return m.Content.FunctionResponses() }

// IsToolEvent reports whether the message is tool traffic (a call request or
// a call result) rather than a chat message.
func (m Message) IsToolEvent() bool {
	return len(m.FunctionCalls()) > 0 || len(m.FunctionResponses()) > 0
}

// ChatMessages filters out tool events, returning only chat messages.
func ChatMessages(history []Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if !m.IsToolEvent() {
			out = append(out, m)
		}
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
