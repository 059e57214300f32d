package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicVersion = "2023-06-01"

type AnthropicConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// AnthropicClient speaks the Messages API.
type AnthropicClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

var _ Client = (*AnthropicClient)(nil)

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type messageRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
	System    string        `json:"system,omitempty"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  *int `json:"input_tokens"`
		OutputTokens *int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *AnthropicClient) Complete(ctx context.Context, prompt, systemPrompt string) Completion {
	payload, err := json.Marshal(messageRequest{
		Model:     c.model,
		MaxTokens: 4096,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		System:    systemPrompt,
	})
	if err != nil {
		return Completion{Err: fmt.Sprintf("Request failed: %v", err)}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return Completion{Err: fmt.Sprintf("Request failed: %v", err)}
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("anthropic-version", anthropicVersion)
	if c.apiKey != "" {
		request.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	response, err := c.client.Do(request)
	latency := float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		return Completion{LatencyMS: latency, Err: fmt.Sprintf("Request failed: %v", err)}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	latency = float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		return Completion{LatencyMS: latency, Err: fmt.Sprintf("Request failed: %v", err)}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return Completion{LatencyMS: latency, Err: fmt.Sprintf("HTTP %d: %s", response.StatusCode, string(body))}
	}

	var data messageResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Completion{LatencyMS: latency, Err: fmt.Sprintf("Request failed: decode response: %v", err)}
	}

	var text strings.Builder
	for _, block := range data.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	// The Messages API reports input and output tokens but no total.
	return Completion{
		Text:             text.String(),
		PromptTokens:     data.Usage.InputTokens,
		CompletionTokens: data.Usage.OutputTokens,
		LatencyMS:        latency,
	}
}
