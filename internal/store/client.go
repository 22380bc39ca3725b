// Package store is the REST client for the social-feed backend that holds
// users, posts and comments.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tuannvm/crowdseed/internal/types"
)

// Operation names used in errors and logs.
const (
	OpCreateUser    = "create_user"
	OpCreatePost    = "create_post"
	OpGetPost       = "get_post"
	OpListUsers     = "list_users"
	OpGetUserByID   = "get_user_by_id"
	OpCreateComment = "create_comment"
)

const maxBodyExcerpt = 200

// Client is an HTTP client for the domain store
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	newUsername func() string
}

// envelope is the response shape shared by every store endpoint.
type envelope struct {
	Success *bool          `json:"success,omitempty"`
	Error   string         `json:"error,omitempty"`
	User    *types.User    `json:"user,omitempty"`
	Users   []types.User   `json:"users,omitempty"`
	Post    *types.Post    `json:"post,omitempty"`
	Comment *types.Comment `json:"comment,omitempty"`
}

type createUserRequest struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Username string `json:"username"`
}

type createPostRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

// NewClient creates a store client. timeout bounds every request.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:      logger,
		newUsername: newUsername,
	}
}

// BaseURL returns the store root URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateUser creates a user and returns it with its server-assigned id
func (c *Client) CreateUser(ctx context.Context, name, bio, username string) (types.User, error) {
	env, err := c.do(ctx, OpCreateUser, http.MethodPost, "/user", createUserRequest{
		Name:     name,
		Bio:      bio,
		Username: username,
	})
	if err != nil {
		return types.User{}, err
	}
	if env.User == nil || env.User.ID == "" {
		return types.User{}, &PersistError{Op: OpCreateUser, Err: ErrMissingEntity}
	}
	return *env.User, nil
}

// CreatePost creates a post authored by userID
func (c *Client) CreatePost(ctx context.Context, userID, text string) (types.Post, error) {
	env, err := c.do(ctx, OpCreatePost, http.MethodPost, "/post", createPostRequest{
		UserID: userID,
		Text:   text,
	})
	if err != nil {
		return types.Post{}, err
	}
	if env.Post == nil {
		return types.Post{}, &PersistError{Op: OpCreatePost, Err: ErrMissingEntity}
	}
	return *env.Post, nil
}

// GetPost fetches a post by id
func (c *Client) GetPost(ctx context.Context, id string) (types.Post, error) {
	env, err := c.do(ctx, OpGetPost, http.MethodGet, "/post/"+url.PathEscape(id), nil)
	if err != nil {
		return types.Post{}, err
	}
	if env.Post == nil {
		return types.Post{}, &PersistError{Op: OpGetPost, Err: ErrMissingEntity}
	}
	return *env.Post, nil
}

// ListUsers returns every candidate user, in store order
func (c *Client) ListUsers(ctx context.Context) ([]types.User, error) {
	env, err := c.do(ctx, OpListUsers, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	if env.Users == nil {
		return nil, &PersistError{Op: OpListUsers, Err: ErrMissingEntity}
	}
	for i, u := range env.Users {
		if u.ID == "" {
			return nil, &PersistError{Op: OpListUsers, Err: fmt.Errorf("%w: user %d has no id", ErrMissingEntity, i)}
		}
	}
	return env.Users, nil
}

// GetUserByID fetches a user, including their bio
func (c *Client) GetUserByID(ctx context.Context, id string) (types.User, error) {
	env, err := c.do(ctx, OpGetUserByID, http.MethodGet, "/userById/"+url.PathEscape(id), nil)
	if err != nil {
		return types.User{}, err
	}
	if env.User == nil {
		return types.User{}, &PersistError{Op: OpGetUserByID, Err: ErrMissingEntity}
	}
	return *env.User, nil
}

// CreateComment creates a comment on postID authored by userID
func (c *Client) CreateComment(ctx context.Context, postID, userID, text string) (types.Comment, error) {
	env, err := c.do(ctx, OpCreateComment, http.MethodPost, "/post/"+url.PathEscape(postID)+"/comment", createPostRequest{
		UserID: userID,
		Text:   text,
	})
	if err != nil {
		return types.Comment{}, err
	}
	if env.Comment == nil {
		return types.Comment{}, &PersistError{Op: OpCreateComment, Err: ErrMissingEntity}
	}
	return *env.Comment, nil
}

// do performs one round trip. Non-2xx statuses and {"success": false} bodies
// become a PersistError.
func (c *Client) do(ctx context.Context, op, method, path string, reqBody any) (*envelope, error) {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, &PersistError{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &PersistError{Op: op, Err: err}
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &PersistError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PersistError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("store request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PersistError{Op: op, StatusCode: resp.StatusCode, Body: truncate(string(respBody))}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &PersistError{Op: op, StatusCode: resp.StatusCode, Body: truncate(string(respBody)), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if env.Success != nil && !*env.Success {
		reason := env.Error
		if reason == "" {
			reason = "no reason given"
		}
		return nil, &PersistError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %s", ErrRejected, reason)}
	}

	return &env, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxBodyExcerpt {
		n := maxBodyExcerpt
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		return s[:n] + "..."
	}
	return s
}
