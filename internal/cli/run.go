package cli

import (
	"fmt"

	"github.com/rahul/liftoff/internal/report"
	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func newRunCmd(opts *options) *cobra.Command {
	format := formatText
	cmd := &cobra.Command{
		Use:   "run [goal]",
		Short: "Plan and run a goal once",
		Long: `Plan the goal, run every planned step in order and print the result.
The configured goal (app.goal or LIFTOFF_GOAL) is used when no goal is given.

The command exits 0 whenever a result is produced, whatever its status. It fails
only when the plan names a step that is not registered.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoal(cmd, opts, format, args)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")
	return cmd
}

func runGoal(cmd *cobra.Command, opts *options, format string, args []string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}

	goal := goalFrom(args, a.cfg.App.Goal)
	result, err := a.planner.Run(cmd.Context(), goal, a.registry)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == formatJSON {
		data, err := report.JSON(result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	_, err = fmt.Fprint(out, report.NewText(out).Render(result))
	return err
}
