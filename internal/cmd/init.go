package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tuannvm/crowdseed/internal/config"
)

const configHeader = `# Crowdseed Configuration
# Backends read their API keys from the environment variable named by api_key_env.
# Task prompts default to the embedded templates; set prompt or prompt_file to override.

`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .crowdseed/config.yaml with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := filepath.Join(config.ConfigDir, "config.yaml")
			if err := writeDefaultConfig(configFile, force); err != nil {
				return err
			}

			out := reporter(cmd)
			out.Info("Created %s", configFile)
			out.Info("")
			out.Info("You can now customize the backends and prompts and run:")
			out.Info("  crowdseed create-users")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}

func writeDefaultConfig(configFile string, force bool) error {
	if _, err := os.Stat(configFile); err == nil && !force {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(configHeader+string(data)), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
