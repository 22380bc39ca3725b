package store

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tuannvm/crowdseed/internal/types"
)

// ProfileResult is the outcome of persisting one generated profile.
type ProfileResult struct {
	User types.User
	Post types.Post
	// Orphaned is set when the user was created but the first post was not.
	// No rollback is attempted.
	Orphaned bool
}

func newUsername() string {
	return uuid.NewString()
}

// PersistProfile creates the user, then their first post with the new user
// id. Post creation is skipped when user creation fails.
func (c *Client) PersistProfile(ctx context.Context, profile types.UserProfile) (ProfileResult, error) {
	var result ProfileResult

	user, err := c.CreateUser(ctx, profile.FullName(), profile.Bio, c.newUsername())
	if err != nil {
		return result, err
	}
	result.User = user
	c.logger.Debug("user created", zap.String("user_id", user.ID), zap.String("username", user.Username))

	post, err := c.CreatePost(ctx, user.ID, profile.FirstPost)
	if err != nil {
		result.Orphaned = true
		c.logger.Warn("user created without first post", zap.String("user_id", user.ID), zap.Error(err))
		return result, err
	}
	result.Post = post
	c.logger.Debug("post created", zap.String("user_id", user.ID), zap.String("post_id", post.ID))

	return result, nil
}

// PersistReaction creates the comment for a generated reaction.
func (c *Client) PersistReaction(ctx context.Context, postID, userID string, reaction types.Reaction) (types.Comment, error) {
	return c.CreateComment(ctx, postID, userID, reaction.Text)
}
