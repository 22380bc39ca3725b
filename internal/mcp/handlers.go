package mcp

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/pipeline"
	"github.com/tuannvm/crowdseed/internal/runner"
)

// Handlers provides the business logic for MCP tool handlers.
// It can be used standalone or injected into the MCP server.
type Handlers struct {
	configPath string
	logger     *zap.Logger
	metrics    *pipeline.Metrics

	// loadConfig is swapped in tests
	loadConfig func() (*config.Config, error)
}

// NewHandlers creates a new Handlers instance.
func NewHandlers() *Handlers {
	h := &Handlers{logger: zap.NewNop()}
	h.loadConfig = func() (*config.Config, error) {
		return runner.LoadConfig(config.RunOptions{ConfigPath: h.configPath})
	}
	return h
}

// WithConfigPath sets the config file path.
func (h *Handlers) WithConfigPath(path string) *Handlers {
	h.configPath = path
	return h
}

// WithLogger sets the structured logger.
func (h *Handlers) WithLogger(logger *zap.Logger) *Handlers {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithMetrics records pipeline iterations in m.
func (h *Handlers) WithMetrics(m *pipeline.Metrics) *Handlers {
	h.metrics = m
	return h
}

func (h *Handlers) deps() runner.Deps {
	return runner.Deps{Log: h.logger, Metrics: h.metrics}
}

// CreateUsers runs the user-creation pipeline.
func (h *Handlers) CreateUsers(ctx context.Context, input CreateUsersInput) (RunOutput, error) {
	if input.Description == "" {
		return RunOutput{}, fmt.Errorf("description is required")
	}
	if input.Count < 1 {
		return RunOutput{}, fmt.Errorf("count must be at least 1")
	}

	cfg, err := h.loadConfig()
	if err != nil {
		return RunOutput{}, err
	}

	start := time.Now()
	report, err := runner.CreateUsers(ctx, cfg, config.CreateUsersOptions{
		Description: input.Description,
		Count:       input.Count,
	}, h.deps())
	if report == nil {
		return RunOutput{}, err
	}
	return toRunOutput(report, time.Since(start)), err
}

// ReactToPost runs the reaction pipeline for one post.
func (h *Handlers) ReactToPost(ctx context.Context, input ReactToPostInput) (RunOutput, error) {
	if input.PostID == "" {
		return RunOutput{}, fmt.Errorf("post_id is required")
	}

	cfg, err := h.loadConfig()
	if err != nil {
		return RunOutput{}, err
	}

	start := time.Now()
	report, err := runner.React(ctx, cfg, config.ReactOptions{PostID: input.PostID}, h.deps())
	if report == nil {
		return RunOutput{}, err
	}
	return toRunOutput(report, time.Since(start)), err
}

// ListTasks returns the configured pipelines and their task chains.
func (h *Handlers) ListTasks(_ context.Context, _ ListTasksInput) ListTasksOutput {
	cfg, err := h.loadConfig()
	if err != nil {
		return ListTasksOutput{Error: err.Error()}
	}

	out := ListTasksOutput{Store: cfg.Store.BaseURL}
	for _, name := range []string{config.PipelineCreateUsers, config.PipelineReact} {
		p, _ := cfg.Pipeline(name)
		backend := cfg.Backends[p.Backend]
		info := PipelineInfo{
			Name:        name,
			Backend:     p.Backend,
			BackendType: backend.Type,
			Model:       backend.Model,
		}
		for i, task := range p.Tasks {
			info.Tasks = append(info.Tasks, TaskInfo{
				Pipeline: name,
				Position: i + 1,
				Name:     task.Name,
				Role:     task.Role,
				Source:   task.Source(),
			})
		}
		out.Pipelines = append(out.Pipelines, info)
	}
	return out
}

func toRunOutput(report *pipeline.Report, elapsed time.Duration) RunOutput {
	out := RunOutput{
		Pipeline:      report.Pipeline,
		Results:       make([]IterationOutput, 0, report.Total()),
		Total:         report.Total(),
		Succeeded:     report.Succeeded(),
		Failed:        report.Failed(),
		TotalDuration: elapsed.Round(time.Millisecond).String(),
	}

	for _, r := range report.Results {
		it := IterationOutput{
			Index:     r.Index,
			Success:   r.Succeeded(),
			Stage:     r.Stage.String(),
			UserID:    r.UserID,
			PostID:    r.PostID,
			CommentID: r.CommentID,
			Orphaned:  r.Orphaned,
			Duration:  r.Duration.Round(time.Millisecond).String(),
		}
		if r.Err != nil {
			it.FailedAt = r.FailedAt.String()
			it.Error = r.Err.Error()
		}
		out.Results = append(out.Results, it)
	}
	return out
}
