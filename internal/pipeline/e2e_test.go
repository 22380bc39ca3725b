package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/generator"
	"github.com/tuannvm/crowdseed/internal/store"
	"github.com/tuannvm/crowdseed/internal/store/storetest"
)

func TestCreateUsersEndToEnd(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()

	fenced := "```json\n" + `{"firstname":"Ana","lastname":"Ray","bio":"Teacher","first_post":"Hello!"}` + "\n```"
	chain, err := generator.NewChain(generator.NewStatic(fenced), []config.TaskConfig{
		{Name: "persona_writer", Prompt: "Invent {number} people like {description}"},
	}, nil, nil)
	require.NoError(t, err)

	client := store.NewClient(srv.URL, time.Second, nil)
	report, err := NewCreationDriver(chain, client).Run(context.Background(), "a teacher", 1)
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded())

	users := srv.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "Ana Ray", users[0].Name)
	assert.Equal(t, "Teacher", users[0].Bio)

	posts := srv.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, users[0].ID, posts[0].UserID)
	assert.Equal(t, "Hello!", posts[0].Text)

	assert.Equal(t, []string{"POST /user", "POST /post"}, srv.Requests())
	assert.Equal(t, users[0].ID, report.Results[0].UserID)
}

func TestReactEndToEnd(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()

	author := srv.AddUser("author", "Union organizer")
	reader := srv.AddUser("reader", "Small business owner")
	post := srv.AddPost(author.ID, "Raise the minimum wage")

	cfg := config.Default()
	cfg.Backends["dry"] = config.BackendConfig{Type: config.BackendStatic, Response: `{"text": "Depends on the region"}`}
	cfg.Pipelines.React.Backend = "dry"

	chain, err := generator.NewPipelineChain(context.Background(), cfg, config.PipelineReact, nil)
	require.NoError(t, err)

	client := store.NewClient(srv.URL, time.Second, nil)
	report, err := NewReactionDriver(chain, client).Run(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded())

	comments := srv.Comments()
	require.Len(t, comments, 2)
	assert.Equal(t, author.ID, comments[0].UserID)
	assert.Equal(t, reader.ID, comments[1].UserID)
	assert.Equal(t, post.ID, comments[1].PostID)
}

func TestReactEndToEndMissingPost(t *testing.T) {
	srv := storetest.NewServer()
	defer srv.Close()
	srv.AddUser("someone", "bio")

	chain, err := generator.NewChain(generator.NewStatic(`{"text":"x"}`), []config.TaskConfig{{Name: "t", Prompt: "p"}}, nil, nil)
	require.NoError(t, err)

	_, err = NewReactionDriver(chain, store.NewClient(srv.URL, time.Second, nil)).Run(context.Background(), "nope")
	var perr *store.PersistError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, store.ErrRejected)
	assert.Empty(t, srv.Comments())
}
