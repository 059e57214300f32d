// Package adapter normalizes provider APIs behind a single completion
// interface so the benchmark runner can probe any endpoint the same way.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

// Completion is the provider-neutral result of one prompt. Provider failures
// are carried in Err rather than returned, so a failed call still yields a
// latency measurement and becomes an error record instead of aborting a run.
type Completion struct {
	Text             string
	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
	LatencyMS        float64
	Err              string
}

func (c Completion) IsError() bool {
	return c.Err != ""
}

// Client sends prompts to one configured model endpoint.
type Client interface {
	Complete(ctx context.Context, prompt, systemPrompt string) Completion
}

// Defaults supplies fallback credentials and endpoints for providers whose
// ModelConfig leaves them blank.
type Defaults struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
	SuspectAPIKey   string
	SuspectBaseURL  string
	Timeout         time.Duration
}

// Wire protocol each provider speaks when the config does not say.
var defaultProtocols = map[string]string{
	"openai":    "openai",
	"anthropic": "anthropic",
	"suspect":   "anthropic",
	"generic":   "openai",
}

// New builds a client for the configured endpoint. The protocol decides the
// wire format; the provider decides which fallback credentials apply, so a
// suspect endpoint can speak either protocol while keeping its own key.
func New(config probe.ModelConfig, defaults Defaults) (Client, error) {
	protocol := config.Protocol
	if protocol == "" {
		protocol = defaultProtocols[config.Provider]
		if protocol == "" {
			protocol = "openai"
		}
	}

	apiKey := config.APIKey
	if apiKey == "" {
		switch config.Provider {
		case "openai":
			apiKey = defaults.OpenAIAPIKey
		case "anthropic":
			apiKey = defaults.AnthropicAPIKey
		case "suspect":
			apiKey = defaults.SuspectAPIKey
		}
	}
	baseURL := config.APIBaseURL
	if baseURL == "" && config.Provider == "suspect" {
		baseURL = defaults.SuspectBaseURL
	}
	timeout := defaults.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	switch protocol {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			Model:   config.ModelName,
			APIKey:  apiKey,
			BaseURL: baseURL,
			Timeout: timeout,
		}), nil
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			Model:   config.ModelName,
			APIKey:  apiKey,
			BaseURL: baseURL,
			Timeout: timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown protocol %q for model %q", protocol, config.ModelName)
	}
}
