// Package generator invokes the text-generation service. A Chain runs an
// explicit, ordered list of tasks against one Backend and returns the output
// of the last task.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/prompt"
	"github.com/tuannvm/crowdseed/internal/types"
)

// Invoker produces raw generated text for a request.
type Invoker interface {
	Generate(ctx context.Context, params types.Params) (string, error)
}

// Prompt is a single rendered request sent to a backend.
type Prompt struct {
	Task   string
	System string
	User   string
	// JSON asks the backend for a JSON response when it supports that mode.
	JSON bool
}

// Backend is one generation service. Every call performs fresh work.
type Backend interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (string, error)
}

// ErrEmptyOutput is wrapped when a backend answers with no text.
var ErrEmptyOutput = errors.New("generation service returned empty output")

// GenerationError reports a failed generation call.
type GenerationError struct {
	Task    string
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (task %s, backend %s): %v", e.Task, e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Chain runs its tasks sequentially. Each task sees the previous task's
// output as {{.Previous}} and the request parameters as {{.Params.name}}.
type Chain struct {
	backend Backend
	tasks   []config.TaskConfig
	loader  *prompt.Loader
	logger  *zap.Logger
}

// NewChain builds a chain over the given tasks. The task list is copied.
func NewChain(backend Backend, tasks []config.TaskConfig, loader *prompt.Loader, logger *zap.Logger) (*Chain, error) {
	if backend == nil {
		return nil, errors.New("generator: backend is required")
	}
	if len(tasks) == 0 {
		return nil, errors.New("generator: at least one task is required")
	}
	if loader == nil {
		loader = prompt.NewLoader("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Chain{
		backend: backend,
		tasks:   append([]config.TaskConfig(nil), tasks...),
		loader:  loader,
		logger:  logger,
	}, nil
}

// Generate implements Invoker.
func (c *Chain) Generate(ctx context.Context, params types.Params) (string, error) {
	previous := ""
	last := len(c.tasks) - 1

	for i, task := range c.tasks {
		if err := ctx.Err(); err != nil {
			return "", c.fail(task.Name, err)
		}

		rendered, err := c.loader.LoadAndRender(task.Name, task.Prompt, task.PromptFile, prompt.Variables{
			Task:     task.Name,
			Params:   params.Map(),
			Previous: previous,
		})
		if err != nil {
			return "", c.fail(task.Name, err)
		}

		start := time.Now()
		out, err := c.backend.Complete(ctx, Prompt{
			Task:   task.Name,
			System: task.Role,
			User:   rendered,
			JSON:   i == last,
		})
		if err != nil {
			return "", c.fail(task.Name, err)
		}
		if strings.TrimSpace(out) == "" {
			return "", c.fail(task.Name, ErrEmptyOutput)
		}

		c.logger.Debug("task completed",
			zap.String("task", task.Name),
			zap.String("backend", c.backend.Name()),
			zap.Int("output_len", len(out)),
			zap.Duration("elapsed", time.Since(start)))
		previous = out
	}

	return previous, nil
}

// Tasks returns the task names in execution order.
func (c *Chain) Tasks() []string {
	names := make([]string, len(c.tasks))
	for i, t := range c.tasks {
		names[i] = t.Name
	}
	return names
}

// Backend returns the backend the chain calls.
func (c *Chain) Backend() Backend {
	return c.backend
}

func (c *Chain) fail(task string, err error) error {
	return &GenerationError{Task: task, Backend: c.backend.Name(), Err: err}
}
