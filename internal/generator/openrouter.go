package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultOpenRouterURL is the OpenRouter API root.
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterConfig configures an OpenAI-compatible chat completions backend.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	JSONMode    bool
	Temperature float64
}

// OpenRouterBackend calls POST {base_url}/chat/completions.
type OpenRouterBackend struct {
	apiKey      string
	baseURL     string
	model       string
	jsonMode    bool
	temperature float64
	httpClient  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenRouter creates an OpenAI-compatible backend.
func NewOpenRouter(cfg OpenRouterConfig) (*OpenRouterBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter: API key not configured")
	}
	if cfg.Model == "" {
		return nil, errors.New("openrouter: model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenRouterURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &OpenRouterBackend{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		jsonMode:    cfg.JSONMode,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

func (b *OpenRouterBackend) Name() string {
	return "openrouter/" + b.model
}

func (b *OpenRouterBackend) Complete(ctx context.Context, p Prompt) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(p.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: p.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: p.User})

	reqBody := chatRequest{
		Model:       b.model,
		Messages:    messages,
		Temperature: b.temperature,
	}
	if p.JSON && b.jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("X-Title", "crowdseed")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, excerpt(string(respBody)))
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if chat.Error != nil {
		return "", fmt.Errorf("API error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	return strings.TrimSpace(chat.Choices[0].Message.Content), nil
}

const maxExcerpt = 200

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxExcerpt {
		n := maxExcerpt
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		return s[:n] + "..."
	}
	return s
}
