package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [goal]",
		Short: "Show the steps a goal would run, without running them",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			goal := goalFrom(args, a.cfg.App.Goal)
			plan, err := a.planner.Check(goal, a.registry)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(plan) == 0 {
				fmt.Fprintln(out, "no steps identified for the goal")
				return nil
			}
			for i, name := range plan {
				s, _ := a.registry.Get(name)
				fmt.Fprintf(out, "%d. %s - %s\n", i+1, name, s.Description())
			}
			return nil
		},
	}
}
