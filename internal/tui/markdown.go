package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const markdownWrap = 100

// RenderPrompt renders a markdown prompt template for the terminal. Output
// that is not a terminal gets the template unchanged.
func RenderPrompt(text string) string {
	if !isTerminal() {
		return text
	}
	out, err := renderMarkdown(text, markdownWrap)
	if err != nil {
		return text
	}
	return out
}

func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
