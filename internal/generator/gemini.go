package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig configures the Google Gemini backend.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	JSONMode    bool
	Temperature float64
}

// GeminiBackend generates text through the Gemini API.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	timeout     time.Duration
	jsonMode    bool
	temperature float64
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiBackend{
		client:      client,
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		jsonMode:    cfg.JSONMode,
		temperature: cfg.Temperature,
	}, nil
}

func (b *GeminiBackend) Name() string {
	return "gemini/" + b.model
}

func (b *GeminiBackend) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(p.User, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{}
	if strings.TrimSpace(p.System) != "" {
		config.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if b.temperature > 0 {
		config.Temperature = genai.Ptr(float32(b.temperature))
	}
	if p.JSON && b.jsonMode {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
