// Package pipeline drives the generate, parse, persist cycles. Both drivers
// are sequential: one iteration at a time, one blocking call at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tuannvm/crowdseed/internal/generator"
	"github.com/tuannvm/crowdseed/internal/parser"
	"github.com/tuannvm/crowdseed/internal/store"
	"github.com/tuannvm/crowdseed/internal/types"
)

// Pipeline names used for logs, metrics and reports.
const (
	NameCreateUsers = "create_users"
	NameReact       = "react"
)

// ErrInvalidCount is returned when a creation run is asked for fewer than
// one user.
var ErrInvalidCount = errors.New("count must be at least 1")

// ErrEmptyPostID is returned when a reaction run has no post to react to.
var ErrEmptyPostID = errors.New("post id is required")

// ProfileStore persists generated user profiles.
type ProfileStore interface {
	PersistProfile(ctx context.Context, profile types.UserProfile) (store.ProfileResult, error)
}

// ReactionStore reads the post and candidate users and persists comments.
type ReactionStore interface {
	GetPost(ctx context.Context, id string) (types.Post, error)
	ListUsers(ctx context.Context) ([]types.User, error)
	GetUserByID(ctx context.Context, id string) (types.User, error)
	PersistReaction(ctx context.Context, postID, userID string, reaction types.Reaction) (types.Comment, error)
}

// Observer is called once per finished iteration.
type Observer func(IterationResult)

type options struct {
	logger     *zap.Logger
	metrics    *Metrics
	observer   Observer
	parseOpts  []parser.Option
	skipAuthor bool
}

// Option configures a driver.
type Option func(*options)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records every iteration in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithObserver reports every finished iteration to fn.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// WithParseOptions sets the options used to decode generated text.
func WithParseOptions(opts ...parser.Option) Option {
	return func(o *options) { o.parseOpts = append(o.parseOpts, opts...) }
}

// WithSkipAuthor makes the reaction driver leave out the post's author.
func WithSkipAuthor(skip bool) Option {
	return func(o *options) { o.skipAuthor = skip }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// finish logs, records and reports a terminal iteration.
func (o *options) finish(pipeline string, it *iteration, report *Report) {
	r := it.result
	report.Results = append(report.Results, r)

	fields := []zap.Field{
		zap.String("pipeline", pipeline),
		zap.Int("iteration", r.Index),
		zap.Duration("elapsed", r.Duration),
	}
	if r.UserID != "" {
		fields = append(fields, zap.String("user_id", r.UserID))
	}
	if r.PostID != "" {
		fields = append(fields, zap.String("post_id", r.PostID))
	}

	if r.Succeeded() {
		o.logger.Info("iteration succeeded", fields...)
	} else {
		fields = append(fields, zap.Stringer("stage", r.FailedAt), zap.Error(r.Err))
		o.logger.Error("iteration failed", fields...)
	}

	o.metrics.observe(pipeline, r)
	if o.observer != nil {
		o.observer(r)
	}
}

// CreationDriver generates and persists a batch of synthetic users.
type CreationDriver struct {
	gen   generator.Invoker
	store ProfileStore
	opts  options
}

// NewCreationDriver creates a user-creation driver.
func NewCreationDriver(gen generator.Invoker, s ProfileStore, opts ...Option) *CreationDriver {
	return &CreationDriver{gen: gen, store: s, opts: buildOptions(opts)}
}

// Run attempts exactly count iterations. Iteration failures are reported
// and never stop the batch; only cancellation ends it early, in which case
// the partial report is returned with ctx.Err().
func (d *CreationDriver) Run(ctx context.Context, description string, count int) (*Report, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}

	params := types.NewParams(map[string]any{
		"description": description,
		"number":      count,
	})
	report := &Report{Pipeline: NameCreateUsers}

	d.opts.logger.Info("creating users", zap.String("pipeline", NameCreateUsers), zap.Int("count", count))

	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		it := d.runOnce(ctx, i, params)
		d.opts.finish(NameCreateUsers, it, report)
	}

	return report, nil
}

func (d *CreationDriver) runOnce(ctx context.Context, index int, params types.Params) *iteration {
	it := newIteration(index)

	it.advance()
	raw, err := d.gen.Generate(ctx, params)
	if err != nil {
		it.fail(err)
		return it
	}

	it.advance()
	profile, err := parser.ParseProfile(raw, d.opts.parseOpts...)
	if err != nil {
		it.fail(err)
		return it
	}

	it.advance()
	result, err := d.store.PersistProfile(ctx, profile)
	it.result.UserID = result.User.ID
	it.result.PostID = result.Post.ID
	it.result.Orphaned = result.Orphaned
	if err != nil {
		it.fail(err)
		return it
	}

	it.advance()
	return it
}

// ReactionDriver has every candidate user comment on one post.
type ReactionDriver struct {
	gen   generator.Invoker
	store ReactionStore
	opts  options
}

// NewReactionDriver creates a reaction driver.
func NewReactionDriver(gen generator.Invoker, s ReactionStore, opts ...Option) *ReactionDriver {
	return &ReactionDriver{gen: gen, store: s, opts: buildOptions(opts)}
}

// Run fetches the post and the user list, failing fast if either fetch
// fails, then attempts one iteration per listed user in list order.
func (d *ReactionDriver) Run(ctx context.Context, postID string) (*Report, error) {
	if postID == "" {
		return nil, ErrEmptyPostID
	}
	logger := d.opts.logger.With(zap.String("pipeline", NameReact), zap.String("post_id", postID))

	post, err := d.store.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", postID, err)
	}
	users, err := d.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	logger.Info("reacting to post", zap.Int("users", len(users)))

	report := &Report{Pipeline: NameReact}
	index := 0
	for _, user := range users {
		if d.opts.skipAuthor && post.UserID != "" && user.ID == post.UserID {
			logger.Debug("skipping post author", zap.String("user_id", user.ID))
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		index++
		it := d.runOnce(ctx, index, postID, post.Text, user.ID)
		d.opts.finish(NameReact, it, report)
	}

	return report, nil
}

func (d *ReactionDriver) runOnce(ctx context.Context, index int, postID, postText, userID string) *iteration {
	it := newIteration(index)
	it.result.UserID = userID
	it.result.PostID = postID

	user, err := d.store.GetUserByID(ctx, userID)
	if err != nil {
		it.fail(fmt.Errorf("fetch user %s: %w", userID, err))
		return it
	}

	it.advance()
	raw, err := d.gen.Generate(ctx, types.NewParams(map[string]any{
		"post_text": postText,
		"user_bio":  user.Bio,
	}))
	if err != nil {
		it.fail(err)
		return it
	}

	it.advance()
	reaction, err := parser.ParseReaction(raw, d.opts.parseOpts...)
	if err != nil {
		it.fail(err)
		return it
	}

	it.advance()
	comment, err := d.store.PersistReaction(ctx, postID, userID, reaction)
	if err != nil {
		it.fail(err)
		return it
	}
	it.result.CommentID = comment.ID

	it.advance()
	return it
}
