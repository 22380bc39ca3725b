package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/store/storetest"
)

const profileJSON = `{"firstname":"Ana","lastname":"Ray","bio":"Retired teacher","first_post":"Hello!"}`

func testHandlers(t *testing.T, storeURL, createResponse, reactResponse string) *Handlers {
	t.Helper()
	cfg := config.Default()
	cfg.Store.BaseURL = storeURL
	cfg.Backends = map[string]config.BackendConfig{
		"create": {Type: config.BackendStatic, Response: createResponse},
		"react":  {Type: config.BackendStatic, Response: reactResponse},
	}
	cfg.Pipelines.CreateUsers.Backend = "create"
	cfg.Pipelines.React.Backend = "react"
	require.NoError(t, cfg.Validate())

	h := NewHandlers()
	h.loadConfig = func() (*config.Config, error) { return cfg, nil }
	return h
}

func TestCreateUsersHandler(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()

	h := testHandlers(t, srv.URL, profileJSON, `{"text":"x"}`)
	out, err := h.CreateUsers(context.Background(), CreateUsersInput{Description: "teachers", Count: 2})
	require.NoError(t, err)

	assert.Equal(t, config.PipelineCreateUsers, out.Pipeline)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 0, out.Failed)
	require.Len(t, out.Results, 2)
	for i, r := range out.Results {
		assert.Equal(t, i+1, r.Index)
		assert.True(t, r.Success)
		assert.Equal(t, "done", r.Stage)
		assert.NotEmpty(t, r.UserID)
		assert.NotEmpty(t, r.PostID)
		assert.Empty(t, r.Error)
	}
	assert.Len(t, srv.Users(), 2)
	assert.Len(t, srv.Posts(), 2)
}

func TestCreateUsersHandlerParseFailure(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()

	h := testHandlers(t, srv.URL, "not json at all", `{"text":"x"}`)
	out, err := h.CreateUsers(context.Background(), CreateUsersInput{Description: "teachers", Count: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 3, out.Failed)
	for _, r := range out.Results {
		assert.False(t, r.Success)
		assert.Equal(t, "failed", r.Stage)
		assert.Equal(t, "parsing", r.FailedAt)
		assert.NotEmpty(t, r.Error)
	}
	assert.Empty(t, srv.Users())
}

func TestCreateUsersHandlerValidation(t *testing.T) {
	h := NewHandlers()
	h.loadConfig = func() (*config.Config, error) {
		t.Fatal("config should not be loaded for invalid input")
		return nil, nil
	}

	tests := []struct {
		name  string
		input CreateUsersInput
		want  string
	}{
		{"missing description", CreateUsersInput{Count: 1}, "description is required"},
		{"zero count", CreateUsersInput{Description: "x"}, "count must be at least 1"},
		{"negative count", CreateUsersInput{Description: "x", Count: -2}, "count must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.CreateUsers(context.Background(), tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReactToPostHandler(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()

	author := srv.AddUser("Ana Ray", "Teacher")
	srv.AddUser("Bo Lin", "Chef")
	post := srv.AddPost(author.ID, "Hello!")

	h := testHandlers(t, srv.URL, profileJSON, `{"text":"Nice to meet you"}`)
	out, err := h.ReactToPost(context.Background(), ReactToPostInput{PostID: post.ID})
	require.NoError(t, err)

	assert.Equal(t, config.PipelineReact, out.Pipeline)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 2, out.Succeeded)
	for _, r := range out.Results {
		assert.Equal(t, post.ID, r.PostID)
		assert.NotEmpty(t, r.CommentID)
	}
	assert.Len(t, srv.Comments(), 2)
}

func TestReactToPostHandlerMissingPost(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()

	h := testHandlers(t, srv.URL, profileJSON, `{"text":"x"}`)
	_, err := h.ReactToPost(context.Background(), ReactToPostInput{PostID: "nope"})
	require.Error(t, err)
	assert.Empty(t, srv.Comments())

	_, err = h.ReactToPost(context.Background(), ReactToPostInput{})
	require.EqualError(t, err, "post_id is required")
}

func TestListTasksHandler(t *testing.T) {
	h := testHandlers(t, "http://store.test", profileJSON, `{"text":"x"}`)
	out := h.ListTasks(context.Background(), ListTasksInput{})

	require.Empty(t, out.Error)
	assert.Equal(t, "http://store.test", out.Store)
	require.Len(t, out.Pipelines, 2)

	create := out.Pipelines[0]
	assert.Equal(t, config.PipelineCreateUsers, create.Name)
	assert.Equal(t, "create", create.Backend)
	assert.Equal(t, config.BackendStatic, create.BackendType)
	require.Len(t, create.Tasks, 2)
	assert.Equal(t, "persona_researcher", create.Tasks[0].Name)
	assert.Equal(t, 1, create.Tasks[0].Position)
	assert.Equal(t, "persona_writer", create.Tasks[1].Name)
	assert.Equal(t, 2, create.Tasks[1].Position)

	react := out.Pipelines[1]
	assert.Equal(t, config.PipelineReact, react.Name)
	require.Len(t, react.Tasks, 1)
	assert.Equal(t, "reaction_writer", react.Tasks[0].Name)
}

func TestListTasksHandlerConfigError(t *testing.T) {
	h := NewHandlers()
	h.loadConfig = func() (*config.Config, error) { return nil, errors.New("config error: boom") }

	out := h.ListTasks(context.Background(), ListTasksInput{})
	assert.Equal(t, "config error: boom", out.Error)
	assert.Empty(t, out.Pipelines)
}
