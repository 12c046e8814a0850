package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

// options are shared by every command.
type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	format := formatText

	root := &cobra.Command{
		Use:   "liftoff [goal]",
		Short: "Launch weather pipeline driven by free-text goals",
		Long: `Liftoff turns a free-text goal into an ordered plan of steps (next SpaceX launch,
weather at the launch pad, delay summary) and runs them one after another. A failing
step never stops the run; every step reports its own status in the result.

Without a subcommand the goal is run once, like "liftoff run".`,
		Version:      "0.1.0",
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoal(cmd, opts, format, args)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.json", "path to a JSON, YAML or TOML config file")
	root.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")

	root.AddCommand(
		newRunCmd(opts),
		newPlanCmd(opts),
		newServeCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

// goalFrom joins positional args into a goal, falling back to the configured one.
func goalFrom(args []string, fallback string) string {
	if goal := strings.TrimSpace(strings.Join(args, " ")); goal != "" {
		return goal
	}
	return fallback
}
