// Package intent classifies a customer request into one of the support
// intents so a team can route it without a model-driven selector.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
)

// Intent is the kind of request a customer makes.
type Intent string

// Known intents.
const (
	ProductInquiry Intent = "product_inquiry"
	OrderPlacement Intent = "order_placement"
	OrderStatus    Intent = "order_status"
	Complaint      Intent = "complaint"
	Unknown        Intent = "unknown"
)

// All lists the routable intents in a stable order.
func All() []Intent {
	return []Intent{ProductInquiry, OrderPlacement, OrderStatus, Complaint}
}

func (i Intent) String() string { return string(i) }

// Parse maps a label to an Intent. Case, surrounding punctuation and
// space/hyphen separators are ignored; a label embedded in a longer reply is
// still found. Anything else is Unknown.
func Parse(s string) Intent {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.Trim(norm, ".:;,!'\"`*")
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)

	for _, i := range All() {
		if norm == string(i) {
			return i
		}
	}
	for _, i := range All() {
		if strings.Contains(norm, string(i)) {
			return i
		}
	}
	return Unknown
}

// Classifier assigns an intent to a customer request.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (Intent, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (Intent, error) { return f(ctx, text) }

const classifierInstructions = `You classify customer support requests.
Answer with exactly one label and nothing else:
product_inquiry - questions about products, prices or stock
order_placement - the customer wants to buy or order something
order_status - the customer asks about an existing order
complaint - the customer reports a problem with an order
unknown - anything else`

// ModelClassifier asks a model for the label in a single call.
type ModelClassifier struct {
	llm    model.Model
	logger logging.Logger
}

// NewModelClassifier creates a ModelClassifier. logger may be nil.
func NewModelClassifier(llm model.Model, logger logging.Logger) *ModelClassifier {
	return &ModelClassifier{llm: llm, logger: logging.OrNoOp(logger)}
}

// Classify implements Classifier.
func (c *ModelClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	reply, err := model.GenerateText(ctx, c.llm, classifierInstructions, text)
	if err != nil {
		return Unknown, fmt.Errorf("intent: classify: %w", err)
	}

	i := Parse(reply)
	c.logger.Debug("intent.classified", "intent", i.String(), "reply", reply)

	return i, nil
}

// Rule maps any of its keywords to an intent.
type Rule struct {
	Intent   Intent
	Keywords []string
}

// DefaultRules are checked in order; complaints win over status checks,
// which win over purchases.
var DefaultRules = []Rule{
	{Intent: Complaint, Keywords: []string{"complain", "complaint", "defective", "broken", "damaged", "refund", "delayed", "wrong item"}},
	{Intent: OrderStatus, Keywords: []string{"status", "where is my", "track", "shipped", "ord-"}},
	{Intent: OrderPlacement, Keywords: []string{"buy", "purchase", "place an order", "order ", "want to get"}},
	{Intent: ProductInquiry, Keywords: []string{"price", "stock", "available", "how much", "cost", "tell me about"}},
}

// KeywordClassifier is a deterministic, model-free Classifier.
type KeywordClassifier struct {
	rules []Rule
}

// NewKeywordClassifier returns a classifier over rules, or DefaultRules
// when none are given.
func NewKeywordClassifier(rules ...Rule) *KeywordClassifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &KeywordClassifier{rules: rules}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(_ context.Context, text string) (Intent, error) {
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return r.Intent, nil
			}
		}
	}
	return Unknown, nil
}
