package tui

import (
	"strings"
	"testing"
)

func TestRenderPromptNotTerminal(t *testing.T) {
	if isTerminal() {
		t.Skip("stdout is a terminal")
	}
	text := "# Persona\n\nWrite {{.Params.number}} people."
	if got := RenderPrompt(text); got != text {
		t.Errorf("RenderPrompt() = %q, want input unchanged", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := renderMarkdown("# Persona\n\nWrite a short bio.", 80)
	if err != nil {
		t.Fatalf("renderMarkdown() error = %v", err)
	}
	if !strings.Contains(out, "Persona") || !strings.Contains(out, "short bio") {
		t.Errorf("renderMarkdown() = %q, missing text", out)
	}
}
