package team

import (
	"fmt"
	"strings"

	"github.com/hupe1980/supportmesh/core"
)

// Termination decides, from the chat history alone, whether a run is over.
// Implementations are stateless so one value can serve concurrent runs.
type Termination interface {
	Check(history []core.Message) (reason string, stop bool)
}

// TerminationFunc adapts a function to Termination.
type TerminationFunc func(history []core.Message) (string, bool)

// Check implements Termination.
func (f TerminationFunc) Check(history []core.Message) (string, bool) { return f(history) }

// MaxMessageTermination stops once the thread holds at least n chat
// messages, the task included. Tool events do not count.
func MaxMessageTermination(n int) Termination {
	return TerminationFunc(func(history []core.Message) (string, bool) {
		count := len(core.ChatMessages(history))
		if count >= n {
			return fmt.Sprintf("Maximum number of messages %d reached, current message count: %d", n, count), true
		}
		return "", false
	})
}

// TextMentionTermination stops when any chat message contains text.
func TextMentionTermination(text string) Termination {
	return TerminationFunc(func(history []core.Message) (string, bool) {
		for _, m := range core.ChatMessages(history) {
			if strings.Contains(m.Text(), text) {
				return fmt.Sprintf("Text '%s' mentioned", text), true
			}
		}
		return "", false
	})
}

// Or stops as soon as any condition stops. Reasons of every condition that
// fired are joined.
func Or(conds ...Termination) Termination {
	return TerminationFunc(func(history []core.Message) (string, bool) {
		var reasons []string
		for _, c := range conds {
			if reason, stop := c.Check(history); stop {
				reasons = append(reasons, reason)
			}
		}
		if len(reasons) == 0 {
			return "", false
		}
		return strings.Join(reasons, "; "), true
	})
}

// And stops only when every condition stops.
func And(conds ...Termination) Termination {
	return TerminationFunc(func(history []core.Message) (string, bool) {
		if len(conds) == 0 {
			return "", false
		}
		reasons := make([]string, 0, len(conds))
		for _, c := range conds {
			reason, stop := c.Check(history)
			if !stop {
				return "", false
			}
			reasons = append(reasons, reason)
		}
		return strings.Join(reasons, "; "), true
	})
}
