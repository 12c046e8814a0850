package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/liftoff/internal/agent"
	"github.com/rahul/liftoff/internal/gateway"
	"github.com/rahul/liftoff/internal/observability"
	"github.com/rahul/liftoff/internal/report"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer goals sent to the enabled chat gateways",
		Long: `Start every enabled chat gateway (Telegram, Discord). Each message is checked
against the goal policy, run through the pipeline and answered with a text report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			gateways, err := startableGateways(a)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if observability.IsTerminal() {
				observability.PrintTerminalBanner()
				observability.InitializeTerminal()
				// Route all log output through the terminal mutex so it never
				// interrupts the dashboard's cursor save/restore sequence.
				log.SetOutput(observability.NewTermWriter())
				defer observability.CleanupTerminal()
				go liveStatus(ctx, a.tracker)
			}
			go heartbeat(ctx, a)

			for name, gw := range gateways {
				name, gw := name, gw
				go func() {
					if err := gw.Start(ctx); err != nil {
						log.Printf("\033[91m[ FAIL ] %s GATEWAY ERROR: %v\033[0m", name, err)
						stop()
					}
				}()
			}

			<-ctx.Done()
			for name, gw := range gateways {
				if err := gw.Stop(); err != nil {
					log.Printf("Error stopping %s gateway: %v", name, err)
				}
			}
			log.Println("\033[95m[ EXIT ] GATEWAYS CLOSED. GOODBYE.\033[0m")
			return nil
		},
	}
}

// startableGateways builds one brain per enabled gateway so each gets its
// own chat allowlist.
func startableGateways(a *app) (map[string]gateway.Messenger, error) {
	render := report.NewText(nil).Render
	gateways := make(map[string]gateway.Messenger)

	for _, name := range []string{"telegram", "discord"} {
		gcfg, ok := a.cfg.GetGatewayConfig(name)
		if !ok {
			continue
		}
		policy, err := buildPolicy(a.cfg.Policy, gcfg.AllowedChats)
		if err != nil {
			return nil, err
		}
		brain := agent.NewPipelineBrain(a.planner, a.registry, policy, render, a.logger)

		var gw gateway.Messenger
		switch name {
		case "telegram":
			gw, err = gateway.NewTelegramGateway(gcfg.Token, brain)
		case "discord":
			gw, err = gateway.NewDiscordGateway(gcfg.Token, brain)
		}
		if err != nil {
			return nil, err
		}
		gateways[name] = gw
	}

	if len(gateways) == 0 {
		return nil, errors.New("no chat gateway is enabled (set gateways.telegram or gateways.discord)")
	}
	return gateways, nil
}

// liveStatus redraws the dashboard line every second.
func liveStatus(ctx context.Context, t *observability.Tracker) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.PrintLiveStatus(t)
		}
	}
}

func heartbeat(ctx context.Context, a *app) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tracker.Heartbeat()
			a.logger.LogHeartbeat()
		}
	}
}
