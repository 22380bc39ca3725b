package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/coder/agentapi/lib/httpapi"
	"github.com/coder/agentapi/lib/logctx"
	"github.com/coder/agentapi/lib/msgfmt"
	"github.com/coder/agentapi/lib/termexec"
)

// agentProcess is a coding-agent CLI running in a pty, served over the
// agentapi HTTP API on localhost.
type agentProcess struct {
	process *termexec.Process
	server  *httpapi.Server
	port    int
	logger  *slog.Logger
}

type agentProcessConfig struct {
	Port           int
	Verbose        bool
	Command        string
	Args           []string
	AgentType      msgfmt.AgentType
	TerminalWidth  uint16
	TerminalHeight uint16
}

// agentTypes maps config names onto the agentapi message formatters.
var agentTypes = map[string]msgfmt.AgentType{
	"claude": msgfmt.AgentTypeClaude,
	"codex":  msgfmt.AgentTypeCodex,
	"gemini": msgfmt.AgentTypeGemini,
	"custom": msgfmt.AgentTypeCustom,
}

func parseAgentType(name string) (msgfmt.AgentType, error) {
	if name == "" {
		return msgfmt.AgentTypeClaude, nil
	}
	t, ok := agentTypes[name]
	if !ok {
		return "", fmt.Errorf("unsupported agent type %q", name)
	}
	return t, nil
}

func startAgentProcess(ctx context.Context, cfg agentProcessConfig) (*agentProcess, error) {
	if cfg.TerminalWidth == 0 {
		cfg.TerminalWidth = 180
	}
	if cfg.TerminalHeight == 0 {
		cfg.TerminalHeight = 50
	}

	// agentapi reads its logger from the context
	var logger *slog.Logger
	if cfg.Verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx = logctx.WithLogger(ctx, logger)

	process, err := termexec.StartProcess(ctx, termexec.StartProcessConfig{
		Program:        cfg.Command,
		Args:           cfg.Args,
		TerminalWidth:  cfg.TerminalWidth,
		TerminalHeight: cfg.TerminalHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start agent process: %w", err)
	}

	server, err := httpapi.NewServer(ctx, httpapi.ServerConfig{
		AgentType:      cfg.AgentType,
		Process:        process,
		Port:           cfg.Port,
		AllowedHosts:   []string{"localhost", "127.0.0.1"},
		AllowedOrigins: []string{"http://localhost", "http://127.0.0.1"},
	})
	if err != nil {
		_ = process.Close(logger, 5*time.Second)
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	// status detection depends on the snapshot loop
	server.StartSnapshotLoop(ctx)

	p := &agentProcess{
		process: process,
		server:  server,
		port:    cfg.Port,
		logger:  logger,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		_ = p.Close(context.Background())
		return nil, fmt.Errorf("server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return p, nil
	}
}

// Close shuts down the server and the agent process.
func (p *agentProcess) Close(ctx context.Context) error {
	var errs []error

	if p.server != nil {
		if err := p.server.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server stop: %w", err))
		}
	}
	if p.process != nil {
		if err := p.process.Close(p.logger, 10*time.Second); err != nil {
			errs = append(errs, fmt.Errorf("process close: %w", err))
		}
	}

	return errors.Join(errs...)
}
