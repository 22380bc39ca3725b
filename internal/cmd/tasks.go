package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/prompt"
	"github.com/tuannvm/crowdseed/internal/runner"
	"github.com/tuannvm/crowdseed/internal/tui"
)

var pipelineNames = []string{config.PipelineCreateUsers, config.PipelineReact}

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the generation tasks of each pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := runner.LoadConfig(runOptions())
			if err != nil {
				return err
			}
			out := reporter(cmd)

			for i, name := range pipelineNames {
				if i > 0 {
					out.Info("")
				}
				p, _ := cfg.Pipeline(name)
				backend := cfg.Backends[p.Backend]
				out.Title(name)
				out.Info("Backend: %s (%s)", p.Backend, config.OptionLabel(config.BackendOptions, backend.Type))
				if backend.Model != "" {
					out.Verbose("Model: %s", backend.Model)
				}
				for pos, task := range p.Tasks {
					out.Info("  %d. %-20s %s", pos+1, task.Name, task.Source())
				}
			}

			templates, err := prompt.NewLoader(cfg.PromptsDir).ListAvailable()
			if err == nil && len(templates) > 0 {
				out.Verbose("")
				out.Verbose("Available templates: %s", strings.Join(templates, ", "))
			}
			return nil
		},
	}

	cmd.AddCommand(newTasksShowCmd())
	return cmd
}

func newTasksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task>",
		Short: "Print the prompt template of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := runner.LoadConfig(runOptions())
			if err != nil {
				return err
			}

			task, ok := findTask(cfg, args[0])
			if !ok {
				return fmt.Errorf("unknown task: %s", args[0])
			}

			tmpl, err := prompt.NewLoader(cfg.PromptsDir).Load(task.Name, task.Prompt, task.PromptFile)
			if err != nil {
				return err
			}
			if task.Role != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# role: %s\n\n", task.Role)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderPrompt(tmpl))
			return nil
		},
	}
}

func findTask(cfg *config.Config, name string) (config.TaskConfig, bool) {
	for _, pipeline := range pipelineNames {
		p, _ := cfg.Pipeline(pipeline)
		for _, task := range p.Tasks {
			if task.Name == name {
				return task, true
			}
		}
	}
	return config.TaskConfig{}, false
}
