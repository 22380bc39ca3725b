package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coder/agentapi/lib/msgfmt"
	"go.uber.org/zap"
)

// DefaultAgentPort is the localhost port the agent API listens on.
const DefaultAgentPort = 3284

// AgentConfig configures the local coding-agent backend.
type AgentConfig struct {
	Command   string
	Args      []string
	AgentType string
	Port      int
	Timeout   time.Duration
	Verbose   bool
}

// AgentBackend sends each prompt to a freshly started agent CLI and returns
// the agent's final message. The process is stopped after every call.
type AgentBackend struct {
	cfg       AgentConfig
	agentType msgfmt.AgentType
	logger    *zap.Logger

	// start is swapped in tests
	start func(ctx context.Context, cfg agentProcessConfig) (closer, error)
}

type closer interface {
	Close(ctx context.Context) error
}

// NewAgent creates an agentapi backend.
func NewAgent(cfg AgentConfig, logger *zap.Logger) (*AgentBackend, error) {
	if cfg.Command == "" {
		cfg.Command = "claude"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultAgentPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	agentType, err := parseAgentType(cfg.AgentType)
	if err != nil {
		return nil, err
	}

	return &AgentBackend{
		cfg:       cfg,
		agentType: agentType,
		logger:    logger,
		start: func(ctx context.Context, pc agentProcessConfig) (closer, error) {
			return startAgentProcess(ctx, pc)
		},
	}, nil
}

func (b *AgentBackend) Name() string {
	return "agentapi/" + b.cfg.Command
}

func (b *AgentBackend) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	proc, err := b.start(ctx, agentProcessConfig{
		Port:      b.cfg.Port,
		Verbose:   b.cfg.Verbose,
		Command:   b.cfg.Command,
		Args:      b.cfg.Args,
		AgentType: b.agentType,
	})
	if err != nil {
		return "", err
	}
	defer func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := proc.Close(stopCtx); err != nil {
			b.logger.Warn("failed to stop agent", zap.String("task", p.Task), zap.Error(err))
		}
	}()

	client := newAgentClient(fmt.Sprintf("http://localhost:%d", b.cfg.Port))
	return b.converse(ctx, client, p)
}

// converse runs one prompt/answer exchange against a started agent.
func (b *AgentBackend) converse(ctx context.Context, client *agentClient, p Prompt) (string, error) {
	if err := client.waitForStable(ctx); err != nil {
		return "", fmt.Errorf("agent did not become ready: %w", err)
	}

	if err := client.send(ctx, agentPrompt(p)); err != nil {
		return "", err
	}
	b.logger.Debug("prompt sent to agent", zap.String("task", p.Task), zap.Int("port", b.cfg.Port))

	if err := client.waitForCompletion(ctx); err != nil {
		return "", fmt.Errorf("waiting for agent: %w", err)
	}

	out, err := client.lastAgentMessage(ctx)
	if err != nil {
		if errors.Is(err, ErrEmptyOutput) {
			return "", err
		}
		return "", fmt.Errorf("reading agent output: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// agentPrompt folds the role into the message; agent CLIs take a single
// user turn.
func agentPrompt(p Prompt) string {
	var sb strings.Builder
	if strings.TrimSpace(p.System) != "" {
		sb.WriteString(p.System)
		sb.WriteString("\n\n")
	}
	sb.WriteString(p.User)
	if p.JSON {
		sb.WriteString("\n\nReply with the JSON object only. Do not create or edit any files.")
	}
	return sb.String()
}
