package generator

import "context"

// StaticBackend answers every prompt with the same configured text.
type StaticBackend struct {
	response string
}

// NewStatic creates a backend that always returns response.
func NewStatic(response string) *StaticBackend {
	return &StaticBackend{response: response}
}

func (b *StaticBackend) Name() string { return "static" }

func (b *StaticBackend) Complete(ctx context.Context, _ Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.response, nil
}
