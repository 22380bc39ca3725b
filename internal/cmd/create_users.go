package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/runner"
	"github.com/tuannvm/crowdseed/internal/tui"
)

func newCreateUsersCmd() *cobra.Command {
	var opts config.CreateUsersOptions

	cmd := &cobra.Command{
		Use:   "create-users",
		Short: "Generate and persist synthetic users with a first post",
		Long: `Generate N users matching a free-text description. Each iteration
asks the LLM for a profile, creates the user and publishes its
first post. A failed iteration is reported and the batch continues.

Without --description and --count an interactive form is shown.`,
		Example: `  crowdseed create-users
  crowdseed create-users --description "nurses who love gardening" --count 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := reporter(cmd)
			run := runOptions()

			if opts.Description == "" || opts.Count < 1 {
				prompted, err := tui.PromptCreateUsers(opts, run.Accessible)
				if errors.Is(err, tui.ErrCancelled) {
					out.Info("Cancelled.")
					return nil
				}
				if err != nil {
					return err
				}
				opts = prompted
			}

			cfg, err := runner.LoadConfig(run)
			if err != nil {
				return err
			}

			ctx, cancel := runner.WithSignals(cmd.Context(), out)
			defer cancel()

			out.Title("crowdseed create-users")
			_, err = runner.CreateUsers(ctx, cfg, opts, runner.Deps{Log: logger, Out: out})
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "who the generated users should be")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "number of users to create")
	return cmd
}
