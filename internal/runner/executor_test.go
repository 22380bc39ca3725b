package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/pipeline"
	"github.com/tuannvm/crowdseed/internal/store/storetest"
)

// recordingLogger captures operator output line by line.
type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) add(prefix, format string, args ...interface{}) {
	l.lines = append(l.lines, prefix+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(f string, a ...interface{})    { l.add("", f, a...) }
func (l *recordingLogger) Verbose(f string, a ...interface{}) { l.add("[DEBUG] ", f, a...) }
func (l *recordingLogger) Error(f string, a ...interface{})   { l.add("Error: ", f, a...) }
func (l *recordingLogger) Success(f string, a ...interface{}) { l.add("✓ ", f, a...) }
func (l *recordingLogger) Failure(f string, a ...interface{}) { l.add("✗ ", f, a...) }

func (l *recordingLogger) String() string {
	return strings.Join(l.lines, "\n")
}

func staticConfig(storeURL, createResponse, reactResponse string) *config.Config {
	cfg := config.Default()
	cfg.Store.BaseURL = storeURL
	cfg.Backends = map[string]config.BackendConfig{
		"create": {Type: config.BackendStatic, Response: createResponse},
		"react":  {Type: config.BackendStatic, Response: reactResponse},
	}
	cfg.Pipelines.CreateUsers.Backend = "create"
	cfg.Pipelines.React.Backend = "react"
	return cfg
}

func TestCreateUsers(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()

	cfg := staticConfig(srv.URL,
		"```json\n{\"firstname\":\"Ana\",\"lastname\":\"Ray\",\"bio\":\"Teacher\",\"first_post\":\"Hello!\"}\n```",
		`{"text":"x"}`)
	out := &recordingLogger{}
	reg := prometheus.NewRegistry()
	metrics, err := pipeline.NewMetrics(reg)
	require.NoError(t, err)

	report, err := CreateUsers(context.Background(), cfg, config.CreateUsersOptions{Description: "a teacher", Count: 2}, Deps{Out: out, Metrics: metrics})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded())
	assert.Len(t, srv.Users(), 2)
	assert.Len(t, srv.Posts(), 2)

	text := out.String()
	assert.Contains(t, text, "✓ user 1/2")
	assert.Contains(t, text, "✓ user 2/2")
	assert.Contains(t, text, "2/2 iterations succeeded")

	series, err := testutil.GatherAndCount(reg, "crowdseed_iterations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series, "both iterations share the succeeded series")
}

func TestCreateUsersReportsFailures(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()

	cfg := staticConfig(srv.URL, "I would rather not.", `{"text":"x"}`)
	out := &recordingLogger{}

	report, err := CreateUsers(context.Background(), cfg, config.CreateUsersOptions{Description: "x", Count: 3}, Deps{Out: out})
	require.NoError(t, err, "iteration failures do not fail the batch")
	assert.Equal(t, 3, report.Failed())
	assert.Empty(t, srv.Users())
	assert.Contains(t, out.String(), "✗ user 3/3: failed at parsing")
	assert.Contains(t, out.String(), "0/3 iterations succeeded")
}

func TestReact(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()
	author := srv.AddUser("author", "Organizer")
	srv.AddUser("reader", "Shop owner")
	post := srv.AddPost(author.ID, "Raise the minimum wage")

	cfg := staticConfig(srv.URL, "", `{"text":"Depends"}`)
	out := &recordingLogger{}

	report, err := React(context.Background(), cfg, config.ReactOptions{PostID: post.ID}, Deps{Out: out})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded())
	assert.Len(t, srv.Comments(), 2)
	assert.Contains(t, out.String(), "2/2 iterations succeeded")
}

func TestReactSkipAuthor(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()
	author := srv.AddUser("author", "Organizer")
	srv.AddUser("reader", "Shop owner")
	post := srv.AddPost(author.ID, "text")

	cfg := staticConfig(srv.URL, "", `{"text":"Depends"}`)
	cfg.Pipelines.React.SkipAuthor = true

	report, err := React(context.Background(), cfg, config.ReactOptions{PostID: post.ID}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total())
}

func TestReactMissingPostIsFatal(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()

	cfg := staticConfig(srv.URL, "", `{"text":"x"}`)
	out := &recordingLogger{}

	report, err := React(context.Background(), cfg, config.ReactOptions{PostID: "missing"}, Deps{Out: out})
	assert.Error(t, err)
	assert.Nil(t, report)
	assert.NotContains(t, out.String(), "iterations succeeded")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipelines:\n  react:\n    backend: nowhere\n"), 0644))

	_, err := LoadConfig(config.RunOptions{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, err = LoadConfig(config.RunOptions{ConfigPath: filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestWithSignalsCancel(t *testing.T) {
	ctx, cancel := WithSignals(context.Background(), Discard())
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
