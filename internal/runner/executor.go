// Package runner provides the execution logic for the two pipelines.
// This is the shared execution path for both the CLI and the MCP server.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/generator"
	"github.com/tuannvm/crowdseed/internal/parser"
	"github.com/tuannvm/crowdseed/internal/pipeline"
	"github.com/tuannvm/crowdseed/internal/store"
)

// Logger provides operator-facing output for the executor
type Logger interface {
	Info(format string, args ...interface{})
	Verbose(format string, args ...interface{})
	Error(format string, args ...interface{})
	Success(format string, args ...interface{})
	Failure(format string, args ...interface{})
}

// Deps are the collaborators shared by every run.
type Deps struct {
	Log     *zap.Logger
	Out     Logger
	Metrics *pipeline.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Out == nil {
		d.Out = Discard()
	}
	return d
}

// LoadConfig loads and validates the configuration named by opts.
func LoadConfig(opts config.RunOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// CreateUsers runs the user-creation pipeline.
func CreateUsers(ctx context.Context, cfg *config.Config, opts config.CreateUsersOptions, deps Deps) (*pipeline.Report, error) {
	deps = deps.withDefaults()

	chain, err := generator.NewPipelineChain(ctx, cfg, config.PipelineCreateUsers, deps.Log)
	if err != nil {
		return nil, err
	}
	client := store.NewClient(cfg.Store.BaseURL, cfg.StoreTimeout(), deps.Log)

	logStartup(deps.Out, cfg, config.PipelineCreateUsers, chain)
	deps.Out.Info("Creating %d user(s): %s", opts.Count, opts.Description)
	deps.Out.Info("")

	driver := pipeline.NewCreationDriver(chain, client,
		pipeline.WithLogger(deps.Log),
		pipeline.WithMetrics(deps.Metrics),
		pipeline.WithParseOptions(parser.WithRepair(cfg.Parser.Repair)),
		pipeline.WithObserver(func(r pipeline.IterationResult) {
			printCreationStatus(r, opts.Count, deps.Out)
		}),
	)

	report, err := driver.Run(ctx, opts.Description, opts.Count)
	if report != nil {
		printSummary(report, deps.Out)
	}
	return report, err
}

// React runs the reaction pipeline for one post.
func React(ctx context.Context, cfg *config.Config, opts config.ReactOptions, deps Deps) (*pipeline.Report, error) {
	deps = deps.withDefaults()

	chain, err := generator.NewPipelineChain(ctx, cfg, config.PipelineReact, deps.Log)
	if err != nil {
		return nil, err
	}
	client := store.NewClient(cfg.Store.BaseURL, cfg.StoreTimeout(), deps.Log)

	logStartup(deps.Out, cfg, config.PipelineReact, chain)
	deps.Out.Info("Reacting to post %s", opts.PostID)
	deps.Out.Info("")

	driver := pipeline.NewReactionDriver(chain, client,
		pipeline.WithLogger(deps.Log),
		pipeline.WithMetrics(deps.Metrics),
		pipeline.WithParseOptions(parser.WithRepair(cfg.Parser.Repair)),
		pipeline.WithSkipAuthor(cfg.Pipelines.React.SkipAuthor),
		pipeline.WithObserver(func(r pipeline.IterationResult) {
			printReactionStatus(r, deps.Out)
		}),
	)

	report, err := driver.Run(ctx, opts.PostID)
	if report != nil {
		printSummary(report, deps.Out)
	}
	return report, err
}

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(ctx context.Context, out Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			out.Info("\nReceived interrupt, finishing current iteration...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func logStartup(out Logger, cfg *config.Config, pipelineName string, chain *generator.Chain) {
	out.Info("Starting crowdseed %s", pipelineName)
	out.Info("Store: %s", cfg.Store.BaseURL)
	out.Info("Backend: %s", chain.Backend().Name())
	out.Verbose("Tasks:")
	for _, task := range chain.Tasks() {
		out.Verbose("  - %s", task)
	}
}

func printCreationStatus(r pipeline.IterationResult, count int, out Logger) {
	if r.Succeeded() {
		out.Success("user %d/%d: created %s with post %s (%s)", r.Index, count, r.UserID, r.PostID, r.Duration.Round(time.Millisecond))
		return
	}
	msg := fmt.Sprintf("user %d/%d: failed at %s (%v)", r.Index, count, r.FailedAt, r.Err)
	if r.Orphaned {
		msg += fmt.Sprintf(" - user %s was created without a post", r.UserID)
	}
	out.Failure("%s", msg)
}

func printReactionStatus(r pipeline.IterationResult, out Logger) {
	if r.Succeeded() {
		out.Success("user %s: comment %s (%s)", r.UserID, r.CommentID, r.Duration.Round(time.Millisecond))
		return
	}
	out.Failure("user %s: failed at %s (%v)", r.UserID, r.FailedAt, r.Err)
}

func printSummary(report *pipeline.Report, out Logger) {
	out.Info("")
	out.Info("=== Summary ===")
	out.Info("%d/%d iterations succeeded", report.Succeeded(), report.Total())
}
