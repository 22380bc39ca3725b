package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Store.BaseURL != "http://localhost:3000" {
		t.Errorf("expected store url http://localhost:3000, got %s", cfg.Store.BaseURL)
	}
	if cfg.StoreTimeout() != 30*time.Second {
		t.Errorf("expected store timeout 30s, got %s", cfg.StoreTimeout())
	}
	if cfg.Pipelines.CreateUsers.Backend != "gemini" {
		t.Errorf("expected create_users backend gemini, got %s", cfg.Pipelines.CreateUsers.Backend)
	}
	if cfg.Pipelines.React.Backend != "openrouter" {
		t.Errorf("expected react backend openrouter, got %s", cfg.Pipelines.React.Backend)
	}
	if cfg.Parser.Repair {
		t.Error("parser repair should be off by default")
	}
	if cfg.Pipelines.React.SkipAuthor {
		t.Error("skip_author should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultPipelineTasks(t *testing.T) {
	cfg := Default()

	tests := []struct {
		pipeline string
		tasks    []string
	}{
		{PipelineCreateUsers, []string{"persona_researcher", "persona_writer"}},
		{PipelineReact, []string{"reaction_writer"}},
	}

	for _, tt := range tests {
		t.Run(tt.pipeline, func(t *testing.T) {
			p, ok := cfg.Pipeline(tt.pipeline)
			if !ok {
				t.Fatalf("pipeline %s not found", tt.pipeline)
			}
			if len(p.Tasks) != len(tt.tasks) {
				t.Fatalf("expected %d tasks, got %d", len(tt.tasks), len(p.Tasks))
			}
			for i, name := range tt.tasks {
				if p.Tasks[i].Name != name {
					t.Errorf("task %d: expected %s, got %s", i, name, p.Tasks[i].Name)
				}
				if p.Tasks[i].Role == "" {
					t.Errorf("task %s has no role", name)
				}
			}
		})
	}
}

func TestPipelineUnknown(t *testing.T) {
	if _, ok := Default().Pipeline("nope"); ok {
		t.Error("expected unknown pipeline to be reported")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `store:
  base_url: http://chirp.test:3000
parser:
  repair: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://chirp.test:3000", cfg.Store.BaseURL)
	assert.Equal(t, defaultStoreTimeout, cfg.Store.Timeout)
	assert.True(t, cfg.Parser.Repair)
	assert.Equal(t, []string{"gemini", "openrouter"}, cfg.GetBackendNames())
	assert.Len(t, cfg.Pipelines.CreateUsers.Tasks, 2)
	assert.NoError(t, cfg.Validate())
}

func TestLoadCustomPipeline(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `backends:
  local:
    type: static
    response: '{"text": "ok"}'
  claude:
    type: agentapi
    command: claude
    agent_type: claude
    port: 3290
pipelines:
  create_users:
    backend: claude
    tasks:
      - name: persona_writer
        prompt: "Write {number} people like {description}"
  react:
    backend: local
    skip_author: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "claude", cfg.Pipelines.CreateUsers.Backend)
	require.Len(t, cfg.Pipelines.CreateUsers.Tasks, 1)
	assert.Contains(t, cfg.Pipelines.CreateUsers.Tasks[0].Prompt, "{description}")
	assert.True(t, cfg.Pipelines.React.SkipAuthor)
	assert.Equal(t, "reaction_writer", cfg.Pipelines.React.Tasks[0].Name)
	assert.Equal(t, 3290, cfg.Backends["claude"].Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("store: [unclosed"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, defaultStoreURL, cfg.Store.BaseURL)

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path that does not exist must fail")
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		timeout     string
		wantURL     string
		wantTimeout int
	}{
		{"no overrides", "", "", defaultStoreURL, defaultStoreTimeout},
		{"url override", "http://other:8080", "", "http://other:8080", defaultStoreTimeout},
		{"timeout override", "", "5", defaultStoreURL, 5},
		{"invalid timeout ignored", "", "soon", defaultStoreURL, defaultStoreTimeout},
		{"negative timeout ignored", "", "-1", defaultStoreURL, defaultStoreTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CROWDSEED_STORE_URL", tt.url)
			t.Setenv("CROWDSEED_TIMEOUT", tt.timeout)

			cfg := Default()
			cfg.ApplyEnvOverrides()

			if cfg.Store.BaseURL != tt.wantURL {
				t.Errorf("BaseURL = %s, want %s", cfg.Store.BaseURL, tt.wantURL)
			}
			if cfg.Store.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %d, want %d", cfg.Store.Timeout, tt.wantTimeout)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default is valid",
			mutate: func(*Config) {},
		},
		{
			name: "invalid backend type",
			mutate: func(c *Config) {
				c.Backends["gemini"] = BackendConfig{Type: "telepathy"}
			},
			wantErr: "invalid type",
		},
		{
			name: "unknown backend reference",
			mutate: func(c *Config) {
				c.Pipelines.React.Backend = "missing"
			},
			wantErr: "unknown backend",
		},
		{
			name: "empty task list",
			mutate: func(c *Config) {
				c.Pipelines.CreateUsers.Tasks = nil
			},
			wantErr: "no tasks",
		},
		{
			name: "unnamed task",
			mutate: func(c *Config) {
				c.Pipelines.React.Tasks = []TaskConfig{{Prompt: "hi"}}
			},
			wantErr: "has no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBackendAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", " g-key ")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("CUSTOM_KEY", "custom")

	tests := []struct {
		name    string
		backend BackendConfig
		want    string
	}{
		{"gemini default env", BackendConfig{Type: BackendGemini}, "g-key"},
		{"openrouter default env", BackendConfig{Type: BackendOpenRouter}, "or-key"},
		{"explicit env", BackendConfig{Type: BackendOpenRouter, APIKeyEnv: "CUSTOM_KEY"}, "custom"},
		{"static has none", BackendConfig{Type: BackendStatic}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.backend.APIKey(); got != tt.want {
				t.Errorf("APIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackendRequestTimeout(t *testing.T) {
	if got := (BackendConfig{}).RequestTimeout(); got != 120*time.Second {
		t.Errorf("default timeout = %s, want 2m0s", got)
	}
	if got := (BackendConfig{Timeout: 7}).RequestTimeout(); got != 7*time.Second {
		t.Errorf("timeout = %s, want 7s", got)
	}
}

func TestTaskConfigSource(t *testing.T) {
	tests := []struct {
		task TaskConfig
		want string
	}{
		{TaskConfig{Name: "a", Prompt: "{{.Task}}", PromptFile: "a.md"}, "inline"},
		{TaskConfig{Name: "a", PromptFile: "a.md"}, "file"},
		{TaskConfig{Name: "a"}, "template"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.task.Source())
	}
}
