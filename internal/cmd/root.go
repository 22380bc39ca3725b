// Package cmd provides the crowdseed CLI implementation using cobra.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/logging"
	"github.com/tuannvm/crowdseed/internal/tui"
)

var (
	verbose    bool
	quiet      bool
	configPath string
	accessible bool
	version    = "dev"

	logger = zap.NewNop()
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crowdseed",
		Short: "Seed a social feed with LLM-generated users, posts and comments",
		Long: `Crowdseed generates synthetic people with an LLM and persists them
to a social-feed backend: a user profile with a first post, or a
comment from every existing user on a given post.

Example:
  crowdseed create-users --description "retired teachers" --count 5
  crowdseed react --post 42
  crowdseed tasks
  crowdseed init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts := runOptions()
			l, err := logging.New(opts.IsVerbose(), opts.IsQuiet())
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet output (errors only)")
	root.PersistentFlags().BoolVar(&accessible, "accessible", false, "enable accessible mode for screen readers")

	root.AddCommand(
		newCreateUsersCmd(),
		newReactCmd(),
		newTasksCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crowdseed version %s\n", version)
		},
	}
}

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

// Execute runs the CLI
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		reporter(rootCmd).Error("%v", err)
		return err
	}
	return nil
}

// runOptions maps the global flags to config.RunOptions.
func runOptions() config.RunOptions {
	opts := config.DefaultRunOptions()
	opts.ConfigPath = configPath
	opts.Accessible = accessible
	if verbose {
		opts.Verbosity = config.VerbosityVerbose
	} else if quiet {
		opts.Verbosity = config.VerbosityQuiet
	}
	return opts
}

func reporter(cmd *cobra.Command) *tui.Reporter {
	opts := runOptions()
	return tui.NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.IsVerbose(), opts.IsQuiet())
}
