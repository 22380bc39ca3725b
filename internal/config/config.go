package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the crowdseed configuration
type Config struct {
	Store      StoreConfig              `yaml:"store"`
	Backends   map[string]BackendConfig `yaml:"backends"`
	Pipelines  PipelinesConfig          `yaml:"pipelines"`
	Parser     ParserConfig             `yaml:"parser"`
	PromptsDir string                   `yaml:"prompts_dir"`
}

// StoreConfig points at the REST backend holding users, posts and comments
type StoreConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// BackendConfig describes one generation service
type BackendConfig struct {
	Type        string  `yaml:"type"` // openrouter, gemini, agentapi, static
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Timeout     int     `yaml:"timeout"` // seconds
	JSONMode    bool    `yaml:"json_mode"`
	Temperature float64 `yaml:"temperature"`

	// agentapi only
	Command   string   `yaml:"command"`
	Args      []string `yaml:"args"`
	AgentType string   `yaml:"agent_type"`
	Port      int      `yaml:"port"`

	// static only
	Response string `yaml:"response"`
}

// PipelinesConfig holds the two generation pipelines
type PipelinesConfig struct {
	CreateUsers PipelineConfig `yaml:"create_users"`
	React       PipelineConfig `yaml:"react"`
}

// PipelineConfig is the ordered task chain a pipeline runs per generation
type PipelineConfig struct {
	Backend    string       `yaml:"backend"`
	Tasks      []TaskConfig `yaml:"tasks"`
	SkipAuthor bool         `yaml:"skip_author"`
}

// TaskConfig is a single generation task
type TaskConfig struct {
	Name       string `yaml:"name"`
	Role       string `yaml:"role"`
	Prompt     string `yaml:"prompt"`
	PromptFile string `yaml:"prompt_file"`
}

// Source reports where the task's prompt comes from: inline, file or the
// embedded template named after the task.
func (t TaskConfig) Source() string {
	switch {
	case t.Prompt != "":
		return "inline"
	case t.PromptFile != "":
		return "file"
	default:
		return "template"
	}
}

// ParserConfig controls response decoding
type ParserConfig struct {
	Repair bool `yaml:"repair"`
}

// Backend type constants
const (
	BackendOpenRouter = "openrouter"
	BackendGemini     = "gemini"
	BackendAgentAPI   = "agentapi"
	BackendStatic     = "static"
)

// ValidBackendTypes lists the supported generation backends
var ValidBackendTypes = []string{BackendOpenRouter, BackendGemini, BackendAgentAPI, BackendStatic}

// IsValidBackendType reports whether t names a supported backend
func IsValidBackendType(t string) bool {
	for _, v := range ValidBackendTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Pipeline names
const (
	PipelineCreateUsers = "create_users"
	PipelineReact       = "react"
)

// ConfigDir is the project-local configuration directory
const ConfigDir = ".crowdseed"

const (
	defaultStoreURL     = "http://localhost:3000"
	defaultStoreTimeout = 30
)

// Load reads config from file, checking multiple locations
func Load(path string) (*Config, error) {
	var configPath string

	if path != "" {
		configPath = path
	} else {
		locations := []string{
			filepath.Join(ConfigDir, "config.yaml"),
			filepath.Join(ConfigDir, "config.yml"),
			filepath.Join(os.Getenv("HOME"), ConfigDir, "config.yaml"),
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				configPath = loc
				break
			}
		}
	}

	if configPath == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	cfg.applyDefaults()
	cfg.ApplyEnvOverrides()

	return &cfg, nil
}

// LoadOrDefault loads config from path, falling back to Default when no file
// exists. Parse errors are returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) && path == "" {
		cfg = Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return nil, err
}

// applyDefaults fills every section the file left empty
func (c *Config) applyDefaults() {
	def := Default()

	if c.Store.BaseURL == "" {
		c.Store.BaseURL = def.Store.BaseURL
	}
	if c.Store.Timeout == 0 {
		c.Store.Timeout = def.Store.Timeout
	}
	if len(c.Backends) == 0 {
		c.Backends = def.Backends
	}
	fillPipeline(&c.Pipelines.CreateUsers, def.Pipelines.CreateUsers)
	fillPipeline(&c.Pipelines.React, def.Pipelines.React)
}

func fillPipeline(p *PipelineConfig, def PipelineConfig) {
	if p.Backend == "" {
		p.Backend = def.Backend
	}
	if len(p.Tasks) == 0 {
		p.Tasks = def.Tasks
	}
}

// ApplyEnvOverrides applies environment variable overrides to config
func (c *Config) ApplyEnvOverrides() {
	if envURL := os.Getenv("CROWDSEED_STORE_URL"); envURL != "" {
		c.Store.BaseURL = envURL
	}
	if envTimeout := os.Getenv("CROWDSEED_TIMEOUT"); envTimeout != "" {
		var timeout int
		if _, err := fmt.Sscanf(envTimeout, "%d", &timeout); err == nil && timeout > 0 {
			c.Store.Timeout = timeout
		}
	}
}

// Validate checks that every pipeline can be built
func (c *Config) Validate() error {
	for _, name := range c.GetBackendNames() {
		b := c.Backends[name]
		if !IsValidBackendType(b.Type) {
			return fmt.Errorf("backend %q: invalid type %q (must be one of %s)", name, b.Type, strings.Join(ValidBackendTypes, ", "))
		}
	}

	for _, name := range []string{PipelineCreateUsers, PipelineReact} {
		p, _ := c.Pipeline(name)
		if _, ok := c.Backends[p.Backend]; !ok {
			return fmt.Errorf("pipeline %s: unknown backend %q", name, p.Backend)
		}
		if len(p.Tasks) == 0 {
			return fmt.Errorf("pipeline %s: no tasks configured", name)
		}
		for i, task := range p.Tasks {
			if strings.TrimSpace(task.Name) == "" {
				return fmt.Errorf("pipeline %s: task %d has no name", name, i+1)
			}
		}
	}
	return nil
}

// Pipeline returns the pipeline config by name
func (c *Config) Pipeline(name string) (PipelineConfig, bool) {
	switch name {
	case PipelineCreateUsers:
		return c.Pipelines.CreateUsers, true
	case PipelineReact:
		return c.Pipelines.React, true
	}
	return PipelineConfig{}, false
}

// GetBackendNames returns sorted list of backend names
func (c *Config) GetBackendNames() []string {
	names := make([]string, 0, len(c.Backends))
	for name := range c.Backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StoreTimeout returns the per-request store timeout
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.Timeout) * time.Second
}

// RequestTimeout returns the per-request timeout for the backend
func (b BackendConfig) RequestTimeout() time.Duration {
	if b.Timeout <= 0 {
		return 120 * time.Second
	}
	return time.Duration(b.Timeout) * time.Second
}

// APIKey reads the backend's credential from the environment. Keys are never
// stored in the config file.
func (b BackendConfig) APIKey() string {
	env := b.APIKeyEnv
	if env == "" {
		switch b.Type {
		case BackendGemini:
			env = "GEMINI_API_KEY"
		case BackendOpenRouter:
			env = "OPENROUTER_API_KEY"
		default:
			return ""
		}
	}
	return strings.TrimSpace(os.Getenv(env))
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			BaseURL: defaultStoreURL,
			Timeout: defaultStoreTimeout,
		},
		Backends: map[string]BackendConfig{
			"gemini": {
				Type:     BackendGemini,
				Model:    "gemini-2.0-flash",
				Timeout:  120,
				JSONMode: true,
			},
			"openrouter": {
				Type:     BackendOpenRouter,
				Model:    "mistralai/mistral-small-3.1-24b-instruct:free",
				BaseURL:  "https://openrouter.ai/api/v1",
				Timeout:  120,
				JSONMode: true,
			},
		},
		Pipelines: PipelinesConfig{
			CreateUsers: PipelineConfig{
				Backend: "gemini",
				Tasks: []TaskConfig{
					{
						Name: "persona_researcher",
						Role: "You are a political and social expert who understands how real people think, " +
							"what they believe and how their background shapes their opinions.",
					},
					{
						Name: "persona_writer",
						Role: "You are a social media expert who writes authentic profiles and posts " +
							"that read like they were written by real people.",
					},
				},
			},
			React: PipelineConfig{
				Backend: "openrouter",
				Tasks: []TaskConfig{
					{
						Name: "reaction_writer",
						Role: "You are a political expert who writes in the voice of a specific social media user " +
							"and reacts to posts the way that person would.",
					},
				},
			},
		},
	}
}
