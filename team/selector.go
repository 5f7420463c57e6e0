package team

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/hupe1980/supportmesh/agent"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
)

// Selector picks the next speaker. previous is nil on the first turn.
type Selector interface {
	Select(ctx context.Context, participants []*agent.Assistant, history []core.Message, previous *agent.Assistant) (*agent.Assistant, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, participants []*agent.Assistant, history []core.Message, previous *agent.Assistant) (*agent.Assistant, error)

// Select implements Selector.
func (f SelectorFunc) Select(ctx context.Context, participants []*agent.Assistant, history []core.Message, previous *agent.Assistant) (*agent.Assistant, error) {
	return f(ctx, participants, history, previous)
}

// ErrNoParticipants is returned when a selector is asked to choose among nobody.
var ErrNoParticipants = errors.New("team: no participants")

// RoundRobinSelector cycles through participants in order, starting with the
// first one.
type RoundRobinSelector struct{}

// Select implements Selector.
func (RoundRobinSelector) Select(_ context.Context, participants []*agent.Assistant, _ []core.Message, previous *agent.Assistant) (*agent.Assistant, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if previous == nil {
		return participants[0], nil
	}
	for i, p := range participants {
		if p == previous {
			return participants[(i+1)%len(participants)], nil
		}
	}
	return participants[0], nil
}

// DefaultSelectorPrompt is the role-play prompt used by ModelSelector. It is
// a text/template receiving .Roles, .Participants and .History.
const DefaultSelectorPrompt = `You are in a role play game. The following roles are available:
{{.Roles}}.
Read the following conversation. Then select the next role from {{.Participants}} to play. Only return the role.

{{.History}}

Read the above conversation. Then select the next role from {{.Participants}} to play. Only return the role.
`

// ModelSelectorOptions configures a ModelSelector.
type ModelSelectorOptions struct {
	// Prompt overrides DefaultSelectorPrompt.
	Prompt string
	// AllowRepeatedSpeaker lets the previous speaker be picked again.
	AllowRepeatedSpeaker bool
	// MaxAttempts bounds model calls per selection.
	MaxAttempts int
	Logger      logging.Logger
}

// ModelSelector asks a model which participant speaks next. The reply must
// mention exactly one candidate name; otherwise the model is asked again
// with feedback. When attempts run out it falls back to the previous
// speaker, else the first candidate.
type ModelSelector struct {
	llm                  model.Model
	prompt               *template.Template
	allowRepeatedSpeaker bool
	maxAttempts          int
	logger               logging.Logger
}

// NewModelSelector creates a ModelSelector. A malformed custom prompt
// returns an error.
func NewModelSelector(llm model.Model, optFns ...func(o *ModelSelectorOptions)) (*ModelSelector, error) {
	opts := ModelSelectorOptions{
		Prompt:               DefaultSelectorPrompt,
		AllowRepeatedSpeaker: true,
		MaxAttempts:          3,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	tmpl, err := template.New("selector").Parse(opts.Prompt)
	if err != nil {
		return nil, fmt.Errorf("team: parse selector prompt: %w", err)
	}

	return &ModelSelector{
		llm:                  llm,
		prompt:               tmpl,
		allowRepeatedSpeaker: opts.AllowRepeatedSpeaker,
		maxAttempts:          opts.MaxAttempts,
		logger:               logging.OrNoOp(opts.Logger),
	}, nil
}

// Select implements Selector.
func (s *ModelSelector) Select(ctx context.Context, participants []*agent.Assistant, history []core.Message, previous *agent.Assistant) (*agent.Assistant, error) {
	candidates := participants
	if !s.allowRepeatedSpeaker && previous != nil {
		candidates = make([]*agent.Assistant, 0, len(participants))
		for _, p := range participants {
			if p != previous {
				candidates = append(candidates, p)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return nil, ErrNoParticipants
	case 1:
		return candidates[0], nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name()
	}
	participantList := formatNameList(names)

	var buf bytes.Buffer
	if err := s.prompt.Execute(&buf, map[string]string{
		"Roles":        formatRoles(candidates),
		"Participants": participantList,
		"History":      formatHistory(history),
	}); err != nil {
		return nil, fmt.Errorf("team: render selector prompt: %w", err)
	}

	contents := []core.Content{core.NewTextContent(core.RoleUser, buf.String())}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err := model.GenerateContent(ctx, s.llm, model.Request{Contents: contents})
		if err != nil {
			return nil, fmt.Errorf("team: select speaker: %w", err)
		}

		reply := resp.Content.Text()
		mentioned := mentionedNames(reply, names)

		var feedback string
		switch len(mentioned) {
		case 1:
			for _, c := range candidates {
				if c.Name() == mentioned[0] {
					s.logger.Debug("team.selector.selected", "speaker", c.Name(), "attempt", attempt)
					return c, nil
				}
			}
		case 0:
			feedback = fmt.Sprintf("No valid name was mentioned. Please select from: %s.", participantList)
		default:
			feedback = fmt.Sprintf("Expected exactly one name to be mentioned. Please select only one from: %s.", participantList)
		}

		s.logger.Warn("team.selector.retry", "attempt", attempt, "reply", reply)
		contents = append(contents,
			core.NewTextContent(core.RoleAssistant, reply),
			core.NewTextContent(core.RoleUser, feedback),
		)
	}

	fallback := candidates[0]
	if previous != nil {
		fallback = previous
	}
	s.logger.Warn("team.selector.fallback", "speaker", fallback.Name(), "attempts", s.maxAttempts)

	return fallback, nil
}

func formatRoles(participants []*agent.Assistant) string {
	lines := make([]string, len(participants))
	for i, p := range participants {
		lines[i] = fmt.Sprintf("%s: %s", p.Name(), p.Description())
	}
	return strings.Join(lines, "\n")
}

func formatNameList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func formatHistory(history []core.Message) string {
	chat := core.ChatMessages(history)
	lines := make([]string, len(chat))
	for i, m := range chat {
		lines[i] = fmt.Sprintf("%s: %s", m.Source, m.Text())
	}
	return strings.Join(lines, "\n")
}

// mentionedNames returns the names that appear in text as whole words.
// Underscored names also match with spaces in place of underscores.
func mentionedNames(text string, names []string) []string {
	var out []string
	for _, name := range names {
		variants := []string{name}
		if strings.Contains(name, "_") {
			variants = append(variants, strings.ReplaceAll(name, "_", " "))
		}
		for _, v := range variants {
			re := regexp.MustCompile(`(^|\W)` + regexp.QuoteMeta(v) + `(\W|$)`)
			if re.MatchString(text) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}
