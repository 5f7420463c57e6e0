package team

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/supportmesh/agent"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/logging"
)

// Default limits of a GroupChat.
const (
	DefaultMaxMessages = 10
	DefaultSentinel    = "TERMINATE"
)

// StopMaxTurns is the stop reason when MaxTurns is reached.
const StopMaxTurns = "Maximum number of turns reached"

// Recorder observes team runs. metrics.Collector satisfies it.
type Recorder interface {
	ObserveTeamTurn(speaker string)
	ObserveTeamRun(stopReason string, turns int, d time.Duration)
}

// Options configures a GroupChat.
type Options struct {
	// Selector picks each speaker. Defaults to a ModelSelector over the
	// first participant's model.
	Selector Selector
	// Termination ends the run. Defaults to the sentinel or the
	// message ceiling, whichever comes first.
	Termination Termination
	// MaxTurns bounds assistant turns per run; 0 means unlimited.
	MaxTurns int

	Recorder Recorder
	Logger   logging.Logger
}

// GroupChat coordinates a fixed set of assistants over a shared thread. It
// keeps no state between runs, so one value can serve concurrent Run calls.
type GroupChat struct {
	participants []*agent.Assistant
	selector     Selector
	termination  Termination
	maxTurns     int
	recorder     Recorder
	logger       logging.Logger
}

// NewGroupChat validates participants (non-empty, unique names) and builds
// a GroupChat.
func NewGroupChat(participants []*agent.Assistant, optFns ...func(o *Options)) (*GroupChat, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if p == nil {
			return nil, errors.New("team: nil participant")
		}
		if _, dup := seen[p.Name()]; dup {
			return nil, fmt.Errorf("team: duplicate participant %q", p.Name())
		}
		seen[p.Name()] = struct{}{}
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Selector == nil {
		sel, err := NewModelSelector(participants[0].Model(), func(o *ModelSelectorOptions) { o.Logger = opts.Logger })
		if err != nil {
			return nil, err
		}
		opts.Selector = sel
	}
	if opts.Termination == nil {
		opts.Termination = Or(TextMentionTermination(DefaultSentinel), MaxMessageTermination(DefaultMaxMessages))
	}

	return &GroupChat{
		participants: append([]*agent.Assistant(nil), participants...),
		selector:     opts.Selector,
		termination:  opts.Termination,
		maxTurns:     opts.MaxTurns,
		recorder:     opts.Recorder,
		logger:       logging.OrNoOp(opts.Logger),
	}, nil
}

// Participants returns the assistants in registration order.
func (g *GroupChat) Participants() []*agent.Assistant {
	return append([]*agent.Assistant(nil), g.participants...)
}

// TaskResult is the outcome of one run.
type TaskResult struct {
	// Messages holds the task, every reply and the tool events produced on
	// the way, in order.
	Messages []core.Message
	// StopReason says why the run ended.
	StopReason string
}

// LastMessage returns the last chat message of the run.
func (r *TaskResult) LastMessage() (core.Message, bool) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if !r.Messages[i].IsToolEvent() {
			return r.Messages[i], true
		}
	}
	return core.Message{}, false
}

// FinalText returns the text of the last chat message. A trailing sentinel
// is removed together with surrounding whitespace.
func (r *TaskResult) FinalText(sentinel string) string {
	m, ok := r.LastMessage()
	if !ok {
		return ""
	}
	text := strings.TrimRight(m.Text(), " \t\r\n")
	if sentinel != "" && strings.HasSuffix(text, sentinel) {
		return strings.TrimSpace(strings.TrimSuffix(text, sentinel))
	}
	return text
}

// Run starts a fresh thread with task as the first message and lets the
// selected assistants reply until the termination condition or MaxTurns
// stops it. Selector or model errors abort the run.
func (g *GroupChat) Run(ctx context.Context, task string) (*TaskResult, error) {
	start := time.Now()
	thread := []core.Message{core.NewUserMessage(task)}
	result := &TaskResult{Messages: append([]core.Message(nil), thread...)}

	g.logger.Info("team.run.start", "participants", len(g.participants))

	var (
		previous *agent.Assistant
		turns    int
	)

	for {
		if reason, stop := g.termination.Check(thread); stop {
			result.StopReason = reason
			break
		}
		if g.maxTurns > 0 && turns >= g.maxTurns {
			result.StopReason = StopMaxTurns
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		speaker, err := g.selector.Select(ctx, g.participants, thread, previous)
		if err != nil {
			g.logger.Error("team.run.select_error", "turn", turns, "error", err.Error())
			return nil, err
		}

		g.logger.Info("team.turn", "turn", turns+1, "speaker", speaker.Name())
		if g.recorder != nil {
			g.recorder.ObserveTeamTurn(speaker.Name())
		}

		resp, err := speaker.Reply(ctx, thread)
		if err != nil {
			g.logger.Error("team.run.reply_error", "speaker", speaker.Name(), "error", err.Error())
			return nil, err
		}

		result.Messages = append(result.Messages, resp.Inner...)
		result.Messages = append(result.Messages, resp.Message)
		thread = append(thread, resp.Message)

		previous = speaker
		turns++
	}

	if g.recorder != nil {
		g.recorder.ObserveTeamRun(result.StopReason, turns, time.Since(start))
	}

	g.logger.Info("team.run.complete",
		"turns", turns,
		"stop_reason", result.StopReason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
