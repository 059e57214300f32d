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

type OpenAIConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// OpenAIClient speaks the Chat Completions protocol. It also serves any
// OpenAI-compatible endpoint, which is how most suspect APIs are probed.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     *int `json:"prompt_tokens"`
		CompletionTokens *int `json:"completion_tokens"`
		TotalTokens      *int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt, systemPrompt string) Completion {
	messages := []chatMessage{}
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return Completion{Err: fmt.Sprintf("Request failed: %v", err)}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Completion{Err: fmt.Sprintf("Request failed: %v", err)}
	}
	request.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
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

	var data chatResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Completion{LatencyMS: latency, Err: fmt.Sprintf("Request failed: decode response: %v", err)}
	}

	text := ""
	if len(data.Choices) > 0 {
		text = data.Choices[0].Message.Content
	}
	return Completion{
		Text:             text,
		PromptTokens:     data.Usage.PromptTokens,
		CompletionTokens: data.Usage.CompletionTokens,
		TotalTokens:      data.Usage.TotalTokens,
		LatencyMS:        latency,
	}
}
