// Package mcp provides MCP (Model Context Protocol) server functionality for crowdseed.
// It exposes the user-creation and reaction pipelines as MCP tools.
package mcp

// CreateUsersInput defines parameters for creating synthetic users.
type CreateUsersInput struct {
	Description string `json:"description" jsonschema:"Free-text description of the people to create"`
	Count       int    `json:"count" jsonschema:"Number of users to create (at least 1)"`
}

// ReactToPostInput defines parameters for generating reactions to a post.
type ReactToPostInput struct {
	PostID string `json:"post_id" jsonschema:"Id of the post every user should comment on"`
}

// IterationOutput is the result of one generate, parse, persist cycle.
type IterationOutput struct {
	Index     int    `json:"index"`
	Success   bool   `json:"success"`
	Stage     string `json:"stage"`
	FailedAt  string `json:"failed_at,omitempty"`
	Error     string `json:"error,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	PostID    string `json:"post_id,omitempty"`
	CommentID string `json:"comment_id,omitempty"`
	Orphaned  bool   `json:"orphaned,omitempty"`
	Duration  string `json:"duration"`
}

// RunOutput contains the results of a pipeline run.
type RunOutput struct {
	Pipeline      string            `json:"pipeline"`
	Results       []IterationOutput `json:"results"`
	Total         int               `json:"total"`
	Succeeded     int               `json:"succeeded"`
	Failed        int               `json:"failed"`
	TotalDuration string            `json:"total_duration"`
}

// ListTasksInput defines parameters for listing tasks.
type ListTasksInput struct{}

// TaskInfo describes one configured generation task.
type TaskInfo struct {
	Pipeline string `json:"pipeline"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Source   string `json:"source"` // inline, file or template
}

// PipelineInfo describes a configured pipeline.
type PipelineInfo struct {
	Name        string     `json:"name"`
	Backend     string     `json:"backend"`
	BackendType string     `json:"backend_type"`
	Model       string     `json:"model,omitempty"`
	Tasks       []TaskInfo `json:"tasks,omitempty"`
}

// ListTasksOutput contains the configured pipelines and their tasks.
type ListTasksOutput struct {
	Store     string         `json:"store"`
	Pipelines []PipelineInfo `json:"pipelines,omitempty"`
	Error     string         `json:"error,omitempty"`
}
