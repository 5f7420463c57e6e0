package team

import (
	"context"
	"fmt"

	"github.com/hupe1980/supportmesh/agent"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/intent"
	"github.com/hupe1980/supportmesh/logging"
)

// IntentSelector routes deterministically: on the first turn it classifies
// the task and picks the specialist registered for that intent, afterwards
// it hands over to the responder. Unroutable intents go straight to the
// responder.
type IntentSelector struct {
	classifier intent.Classifier
	routes     map[intent.Intent]string
	responder  string
	logger     logging.Logger
}

// NewIntentSelector creates an IntentSelector. routes maps intents to
// participant names; responder names the participant that answers the user.
func NewIntentSelector(classifier intent.Classifier, routes map[intent.Intent]string, responder string, logger logging.Logger) *IntentSelector {
	return &IntentSelector{
		classifier: classifier,
		routes:     routes,
		responder:  responder,
		logger:     logging.OrNoOp(logger),
	}
}

// Select implements Selector.
func (s *IntentSelector) Select(ctx context.Context, participants []*agent.Assistant, history []core.Message, previous *agent.Assistant) (*agent.Assistant, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	target := s.responder
	if previous == nil {
		task := firstUserText(history)
		i, err := s.classifier.Classify(ctx, task)
		if err != nil {
			return nil, fmt.Errorf("team: route task: %w", err)
		}
		if name, ok := s.routes[i]; ok {
			target = name
		}
		s.logger.Debug("team.intent.routed", "intent", i.String(), "speaker", target)
	}

	for _, p := range participants {
		if p.Name() == target {
			return p, nil
		}
	}
	return nil, fmt.Errorf("team: no participant named %q", target)
}

func firstUserText(history []core.Message) string {
	for _, m := range history {
		if m.Source == core.SourceUser {
			return m.Text()
		}
	}
	return ""
}
