// Package openai is a minimal chat completions client for an
// OpenAI-compatible text-completion service.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ndxcli/internal/config"
	apperrors "ndxcli/internal/errors"
)

const chatCompletionsPath = "/chat/completions"

// Client is a chat completions client. It performs exactly one HTTP request
// per call and never retries.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for baseURL (for example
// https://api.openai.com/v1).
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.Default(),
	}
}

// NewClientFromConfig creates a client from the openai config section.
func NewClientFromConfig(cfg config.OpenAIConfig, logger *slog.Logger) *Client {
	c := NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout)
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Model returns the default model used when a request names none.
func (c *Client) Model() string {
	return c.model
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a single user-role message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Request is one chat completion request. An empty Model uses the client
// default.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
}

// CompletionResponse carries the first choice and token usage.
type CompletionResponse struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// temperature is not omitempty: zero must reach the service.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ChatCompletion sends req and returns the trimmed content of the first
// choice. Every failure is a ServiceError.
func (c *Client) ChatCompletion(ctx context.Context, req Request) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return CompletionResponse{}, apperrors.NewServiceError("failed to marshal completion request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return CompletionResponse{}, apperrors.NewServiceError("failed to create completion request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, apperrors.NewServiceError("completion request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, apperrors.NewServiceError("failed reading completion response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CompletionResponse{}, apperrors.NewServiceError(
			fmt.Sprintf("completion service returned status %d", resp.StatusCode),
			fmt.Errorf("body=%s", truncate(string(body), 400)),
		).WithContext("status_code", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return CompletionResponse{}, apperrors.NewServiceError("malformed completion response", err)
	}
	if parsed.Error != nil {
		return CompletionResponse{}, apperrors.NewServiceError("completion service error", fmt.Errorf("%s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return CompletionResponse{}, apperrors.NewServiceError("completion response has no choices", nil)
	}

	result := CompletionResponse{
		Content: strings.TrimSpace(parsed.Choices[0].Message.Content),
		Model:   parsed.Model,
	}
	if parsed.Usage != nil {
		result.InputTokens = parsed.Usage.PromptTokens
		result.OutputTokens = parsed.Usage.CompletionTokens
	}

	c.logger.DebugContext(ctx, "completion_received",
		slog.String("model", model),
		slog.Int("prompt_len", promptLen(req.Messages)),
		slog.Int("response_len", len(result.Content)),
		slog.Int("input_tokens", result.InputTokens),
		slog.Int("output_tokens", result.OutputTokens),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// Complete sends a single user prompt.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := c.ChatCompletion(ctx, Request{
		Messages:    []Message{UserMessage(prompt)},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func promptLen(messages []Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
