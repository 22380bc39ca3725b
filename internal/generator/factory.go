package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/prompt"
)

// NewBackend builds the backend described by cfg.
func NewBackend(ctx context.Context, name string, cfg config.BackendConfig, logger *zap.Logger) (Backend, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Type {
	case config.BackendOpenRouter:
		backend, err = NewOpenRouter(OpenRouterConfig{
			APIKey:      cfg.APIKey(),
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.RequestTimeout(),
			JSONMode:    cfg.JSONMode,
			Temperature: cfg.Temperature,
		})
	case config.BackendGemini:
		backend, err = NewGemini(ctx, GeminiConfig{
			APIKey:      cfg.APIKey(),
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.RequestTimeout(),
			JSONMode:    cfg.JSONMode,
			Temperature: cfg.Temperature,
		})
	case config.BackendAgentAPI:
		backend, err = NewAgent(AgentConfig{
			Command:   cfg.Command,
			Args:      cfg.Args,
			AgentType: cfg.AgentType,
			Port:      cfg.Port,
			Timeout:   cfg.RequestTimeout(),
			Verbose:   logger != nil && logger.Core().Enabled(zap.DebugLevel),
		}, logger)
	case config.BackendStatic:
		backend = NewStatic(cfg.Response)
	default:
		return nil, fmt.Errorf("backend %s: unknown type %q", name, cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	return backend, nil
}

// NewPipelineChain builds the chain for a named pipeline from configuration.
func NewPipelineChain(ctx context.Context, cfg *config.Config, pipeline string, logger *zap.Logger) (*Chain, error) {
	p, ok := cfg.Pipeline(pipeline)
	if !ok {
		return nil, fmt.Errorf("unknown pipeline %q", pipeline)
	}
	backendCfg, ok := cfg.Backends[p.Backend]
	if !ok {
		return nil, fmt.Errorf("pipeline %s: unknown backend %q", pipeline, p.Backend)
	}

	backend, err := NewBackend(ctx, p.Backend, backendCfg, logger)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return NewChain(backend, p.Tasks, prompt.NewLoader(cfg.PromptsDir), logger.With(zap.String("pipeline", pipeline)))
}
