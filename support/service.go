package support

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/supportmesh/agent"
	"github.com/hupe1980/supportmesh/intent"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
	"github.com/hupe1980/supportmesh/store"
	"github.com/hupe1980/supportmesh/team"
)

// Selector strategies understood by NewService.
const (
	SelectorModel      = "model"
	SelectorIntent     = "intent"
	SelectorRoundRobin = "round_robin"
)

// Options configures the support Service.
type Options struct {
	// Selector picks the speaker strategy: model (default), intent or
	// round_robin.
	Selector string
	// SelectorModel backs the model selector and the intent classifier.
	// Defaults to the assistants' model.
	SelectorModel model.Model
	// Classifier overrides the intent classifier used by the intent
	// selector. Defaults to a model classifier.
	Classifier intent.Classifier

	MaxMessages          int
	Sentinel             string
	AllowRepeatedSpeaker bool
	MaxSelectorAttempts  int
	MaxTurns             int

	Logger        logging.Logger
	TeamRecorder  team.Recorder
	ToolsRecorder agent.ToolRecorder
}

// Service answers customer queries with the support team.
type Service struct {
	team     *team.GroupChat
	tools    *Tools
	sentinel string
	logger   logging.Logger
}

// NewService wires tools, assistants and the group chat over s.
func NewService(llm model.Model, s store.Store, optFns ...func(o *Options)) (*Service, error) {
	opts := Options{
		Selector:             SelectorModel,
		MaxMessages:          team.DefaultMaxMessages,
		Sentinel:             team.DefaultSentinel,
		AllowRepeatedSpeaker: true,
		MaxSelectorAttempts:  3,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)
	if opts.SelectorModel == nil {
		opts.SelectorModel = llm
	}

	tools := NewTools(s, logger)
	participants := NewAssistants(llm, tools, logger, opts.ToolsRecorder)

	var selector team.Selector
	switch strings.ToLower(opts.Selector) {
	case "", SelectorModel:
		sel, err := team.NewModelSelector(opts.SelectorModel, func(o *team.ModelSelectorOptions) {
			o.AllowRepeatedSpeaker = opts.AllowRepeatedSpeaker
			o.MaxAttempts = opts.MaxSelectorAttempts
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		selector = sel
	case SelectorIntent:
		classifier := opts.Classifier
		if classifier == nil {
			classifier = intent.NewModelClassifier(opts.SelectorModel, logger)
		}
		selector = team.NewIntentSelector(classifier, IntentRoutes(), ResponseAgent, logger)
	case SelectorRoundRobin:
		selector = team.RoundRobinSelector{}
	default:
		return nil, fmt.Errorf("support: unknown selector %q", opts.Selector)
	}

	gc, err := team.NewGroupChat(participants, func(o *team.Options) {
		o.Selector = selector
		o.Termination = team.Or(
			team.TextMentionTermination(opts.Sentinel),
			team.MaxMessageTermination(opts.MaxMessages),
		)
		o.MaxTurns = opts.MaxTurns
		o.Recorder = opts.TeamRecorder
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	return &Service{team: gc, tools: tools, sentinel: opts.Sentinel, logger: logger}, nil
}

// Tools returns the support tools bound to the service's store.
func (s *Service) Tools() *Tools { return s.tools }

// Run executes the team on query and returns the full result.
func (s *Service) Run(ctx context.Context, query string) (*team.TaskResult, error) {
	return s.team.Run(ctx, query)
}

// Chat answers a customer query. Each call starts a fresh conversation; the
// sentinel is stripped from the final message.
func (s *Service) Chat(ctx context.Context, query string) (string, error) {
	res, err := s.team.Run(ctx, query)
	if err != nil {
		s.logger.Error("support.chat.error", "error", err.Error())
		return "", err
	}
	return res.FinalText(s.sentinel), nil
}
