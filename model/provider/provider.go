// Package provider builds a model.Model from declarative settings so
// commands and the façade do not need to know about vendor packages.
package provider

import (
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/supportmesh/model"
	"github.com/hupe1980/supportmesh/model/anthropic"
	"github.com/hupe1980/supportmesh/model/openai"
)

// Provider names accepted by New.
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Mock      = "mock"
)

// Settings selects and tunes a model provider.
type Settings struct {
	Provider    string
	Name        string
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
}

// New returns the model described by s. Zero values keep each adapter's
// defaults.
func New(s Settings) (model.Model, error) {
	switch strings.ToLower(s.Provider) {
	case "", OpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if s.Name != "" {
				o.Model = s.Name
			}
			if s.Temperature > 0 {
				o.Temperature = s.Temperature
			}
			if s.MaxTokens > 0 {
				o.MaxCompletionTokens = s.MaxTokens
			}
			o.APIKey = s.APIKey
			o.BaseURL = s.BaseURL
		}), nil
	case Anthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if s.Name != "" {
				o.Model = anthropicsdk.Model(s.Name)
			}
			if s.Temperature > 0 {
				o.Temperature = s.Temperature
			}
			if s.MaxTokens > 0 {
				o.MaxTokens = s.MaxTokens
			}
			o.APIKey = s.APIKey
		}), nil
	case Mock:
		name := s.Name
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name, Mock), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", s.Provider)
	}
}
