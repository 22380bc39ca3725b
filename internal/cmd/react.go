package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tuannvm/crowdseed/internal/config"
	"github.com/tuannvm/crowdseed/internal/runner"
	"github.com/tuannvm/crowdseed/internal/tui"
)

func newReactCmd() *cobra.Command {
	var opts config.ReactOptions

	cmd := &cobra.Command{
		Use:   "react",
		Short: "Have every user comment on a post",
		Long: `Fetch a post and every user, then generate and persist one comment
per user in the voice of that user's bio. Failing to fetch the post
or the user list aborts the run; a failure for one user does not.

Without --post an interactive form is shown.`,
		Example: `  crowdseed react
  crowdseed react --post 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := reporter(cmd)
			run := runOptions()

			if opts.PostID == "" {
				prompted, err := tui.PromptReact(opts, run.Accessible)
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

			out.Title("crowdseed react")
			_, err = runner.React(ctx, cfg, opts, runner.Deps{Log: logger, Out: out})
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.PostID, "post", "p", "", "id of the post to react to")
	return cmd
}
