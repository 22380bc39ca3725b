// options.go provides shared option definitions for the CLI and MCP server.
package config

// Option represents a selectable option with value and label
type Option struct {
	Value       string
	Label       string
	Description string
}

// RunOptions contains the operator-level parameters shared by every entry point.
type RunOptions struct {
	ConfigPath string
	Verbosity  string // "normal", "verbose", "quiet"
	Accessible bool
}

// CreateUsersOptions are the inputs of the user-creation pipeline
type CreateUsersOptions struct {
	Description string
	Count       int
}

// ReactOptions are the inputs of the reaction pipeline
type ReactOptions struct {
	PostID string
}

// VerbosityNormal, VerbosityVerbose, VerbosityQuiet are verbosity constants
const (
	VerbosityNormal  = "normal"
	VerbosityVerbose = "verbose"
	VerbosityQuiet   = "quiet"
)

// BackendOptions describes the supported backend types for display
var BackendOptions = []Option{
	{Value: BackendGemini, Label: "Gemini", Description: "Google Gemini API"},
	{Value: BackendOpenRouter, Label: "OpenRouter", Description: "OpenAI-compatible chat completions"},
	{Value: BackendAgentAPI, Label: "Agent CLI", Description: "Local coding agent via agentapi"},
	{Value: BackendStatic, Label: "Static", Description: "Fixed response, for dry runs"},
}

// DefaultRunOptions returns RunOptions with sensible defaults
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Verbosity: VerbosityNormal,
	}
}

// IsVerbose returns true if verbosity is set to verbose
func (o RunOptions) IsVerbose() bool {
	return o.Verbosity == VerbosityVerbose
}

// IsQuiet returns true if verbosity is set to quiet
func (o RunOptions) IsQuiet() bool {
	return o.Verbosity == VerbosityQuiet
}

// OptionLabel returns the label for value, or value itself when unknown
func OptionLabel(options []Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
