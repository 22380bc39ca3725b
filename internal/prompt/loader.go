package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var embeddedTemplates embed.FS

// Variables holds the template variables for prompt rendering
type Variables struct {
	// Task is the name of the task being rendered
	Task string
	// Params are the request parameters, addressed as {{.Params.name}}
	Params map[string]any
	// Previous is the output of the preceding task in the chain
	Previous string
}

// Loader handles loading and rendering prompt templates
type Loader struct {
	promptsDir string
}

// NewLoader creates a new prompt loader
// promptsDir is the directory containing custom prompt templates (optional)
func NewLoader(promptsDir string) *Loader {
	return &Loader{
		promptsDir: promptsDir,
	}
}

// Load loads a prompt template for the given task
// Priority order:
// 1. Inline prompt (if provided)
// 2. Custom prompt file (if promptFile is provided)
// 3. Prompt from promptsDir (if directory exists)
// 4. Embedded default template
func (l *Loader) Load(taskName, inlinePrompt, promptFile string) (string, error) {
	if inlinePrompt != "" {
		return inlinePrompt, nil
	}

	if promptFile != "" {
		content, err := os.ReadFile(promptFile)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt file %s: %w", promptFile, err)
		}
		return string(content), nil
	}

	if l.promptsDir != "" {
		promptPath := filepath.Join(l.promptsDir, taskName+".md")
		if content, err := os.ReadFile(promptPath); err == nil {
			return string(content), nil
		}
	}

	content, err := embeddedTemplates.ReadFile("templates/" + taskName + ".md")
	if err != nil {
		return "", fmt.Errorf("no prompt template found for task %s", taskName)
	}
	return string(content), nil
}

// Render renders a prompt template with the given variables
func (l *Loader) Render(promptTemplate string, vars Variables) (string, error) {
	prompt := convertLegacyPlaceholders(promptTemplate)

	// missingkey=error turns a parameter the request did not supply into a
	// render error instead of "<no value>".
	tmpl, err := template.New("prompt").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"join": strings.Join,
		}).Parse(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	if vars.Params == nil {
		vars.Params = map[string]any{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}

	return buf.String(), nil
}

// LoadAndRender loads and renders a prompt in one step
func (l *Loader) LoadAndRender(taskName, inlinePrompt, promptFile string, vars Variables) (string, error) {
	tmpl, err := l.Load(taskName, inlinePrompt, promptFile)
	if err != nil {
		return "", err
	}
	return l.Render(tmpl, vars)
}

var placeholderRe = regexp.MustCompile(`\{[a-z_][a-z0-9_]*\}`)

// convertLegacyPlaceholders converts {name} placeholders to Go template
// syntax: {previous} and {task} map to the chain variables, anything else to a
// request parameter. Text already inside {{ }} is left alone.
func convertLegacyPlaceholders(prompt string) string {
	matches := placeholderRe.FindAllStringIndex(prompt, -1)
	if len(matches) == 0 {
		return prompt
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if (start > 0 && prompt[start-1] == '{') || (end < len(prompt) && prompt[end] == '}') {
			continue
		}
		name := prompt[start+1 : end-1]
		b.WriteString(prompt[last:start])
		switch name {
		case "previous":
			b.WriteString("{{.Previous}}")
		case "task":
			b.WriteString("{{.Task}}")
		default:
			b.WriteString("{{.Params." + name + "}}")
		}
		last = end
	}
	b.WriteString(prompt[last:])
	return b.String()
}

// ListAvailable returns a sorted list of available prompt templates
func (l *Loader) ListAvailable() ([]string, error) {
	tasks := make(map[string]bool)

	entries, err := embeddedTemplates.ReadDir("templates")
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
				tasks[strings.TrimSuffix(entry.Name(), ".md")] = true
			}
		}
	}

	if l.promptsDir != "" {
		entries, err := os.ReadDir(l.promptsDir)
		if err == nil {
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
					tasks[strings.TrimSuffix(entry.Name(), ".md")] = true
				}
			}
		}
	}

	result := make([]string, 0, len(tasks))
	for name := range tasks {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}
