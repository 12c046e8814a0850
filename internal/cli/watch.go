package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/liftoff/internal/agent"
	"github.com/rahul/liftoff/internal/gateway"
	"github.com/rahul/liftoff/internal/report"
	"github.com/spf13/cobra"
)

// writerMessenger delivers scheduled reports to a writer instead of a chat.
type writerMessenger struct {
	w io.Writer
}

func (m writerMessenger) Send(chatID string, text string) error {
	_, err := fmt.Fprintf(m.w, "%s\n", text)
	return err
}

func newWatchCmd(opts *options) *cobra.Command {
	var (
		interval    time.Duration
		gatewayName string
		chatID      string
		once        bool
	)

	cmd := &cobra.Command{
		Use:   "watch [goal]",
		Short: "Re-run a goal on an interval and push each report",
		Long: `Run the goal immediately and then on every interval, sending the text report to
the configured chat. Without an enabled gateway the reports are printed to stdout.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			goal := goalFrom(args, a.cfg.App.Goal)
			if _, err := a.planner.Check(goal, a.registry); err != nil {
				return err
			}

			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.Watch.Interval.Duration
			}
			if gatewayName == "" {
				gatewayName = a.cfg.Watch.Gateway
			}
			if chatID == "" {
				chatID = a.cfg.Watch.ChatID
			}

			messenger, err := watchMessenger(cmd, a, gatewayName, chatID)
			if err != nil {
				return err
			}

			render := report.NewText(nil).Render
			if _, isWriter := messenger.(writerMessenger); isWriter {
				render = report.NewText(cmd.OutOrStdout()).Render
			}
			brain := agent.NewPipelineBrain(a.planner, a.registry, nil, render, a.logger)
			scheduler := agent.NewScheduler(brain, messenger, goal, chatID, interval)

			if once {
				return scheduler.RunOnce(cmd.Context())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			scheduler.Start(ctx)
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 30*time.Minute, "time between runs (default from watch.interval)")
	cmd.Flags().StringVar(&gatewayName, "gateway", "", "gateway used to deliver reports (default from watch.gateway)")
	cmd.Flags().StringVar(&chatID, "chat", "", "chat or channel ID receiving reports (default from watch.chat_id)")
	cmd.Flags().BoolVar(&once, "once", false, "run a single time and exit")
	return cmd
}

// watchMessenger picks the gateway that delivers reports. Send works without
// starting the gateway's listener.
func watchMessenger(cmd *cobra.Command, a *app, name, chatID string) (agent.Messenger, error) {
	gcfg, ok := a.cfg.GetGatewayConfig(name)
	if !ok || chatID == "" {
		log.Printf("No deliverable gateway for watch (gateway %q, chat %q); printing reports", name, chatID)
		return writerMessenger{w: cmd.OutOrStdout()}, nil
	}

	switch name {
	case "telegram":
		return gateway.NewTelegramGateway(gcfg.Token, nil)
	case "discord":
		return gateway.NewDiscordGateway(gcfg.Token, nil)
	}
	return nil, fmt.Errorf("unknown gateway %q", name)
}
