package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/rahul/liftoff/internal/agent"
	"github.com/rahul/liftoff/internal/governance"
	"github.com/rahul/liftoff/internal/observability"
	"github.com/rahul/liftoff/internal/steps"
	"github.com/rahul/liftoff/pkg/config"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// app is everything a command needs to run the pipeline.
type app struct {
	cfg      *config.Config
	logger   *observability.Logger
	tracker  *observability.Tracker
	registry *steps.Registry
	planner  *agent.Planner
}

func newApp(cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(nil)
	if cfg.Logging.Events {
		logger = observability.NewLogger(cmd.ErrOrStderr())
	}
	if cfg.Logging.LLMLogPath != "" {
		logger = logger.WithLLMLog(cfg.Logging.LLMLogPath)
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}

	tracker := observability.Global()
	return &app{
		cfg:      cfg,
		logger:   logger,
		tracker:  tracker,
		registry: registry,
		planner:  agent.NewPlanner(agent.WithLogger(logger), agent.WithTracker(tracker)),
	}, nil
}

// buildRegistry wires the concrete steps. Secrets go to the step that needs
// them and nowhere else.
func buildRegistry(cfg *config.Config, logger *observability.Logger) (*steps.Registry, error) {
	fetcher := steps.NewFetcher(cfg.Steps.Timeout.Duration,
		steps.WithRateLimit(cfg.Steps.RequestsPerSecond, cfg.Steps.Burst),
		steps.WithUserAgent(cfg.Steps.UserAgent),
	)

	var summaryOpts []steps.SummaryOption
	narrator, err := buildNarrator(cfg, logger)
	if err != nil {
		return nil, err
	}
	if narrator != nil {
		summaryOpts = append(summaryOpts, steps.WithNarrator(narrator))
	}

	registry := steps.NewRegistry()
	for _, s := range []steps.Step{
		steps.NewSpaceXStep(cfg.Steps.SpaceXBaseURL, fetcher),
		steps.NewWeatherStep(cfg.Steps.WeatherBaseURL, cfg.Steps.WeatherAPIKey, cfg.Steps.Units, fetcher),
		steps.NewSummaryStep(summaryOpts...),
	} {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// buildNarrator returns nil when no provider is enabled.
func buildNarrator(cfg *config.Config, logger *observability.Logger) (*steps.Narrator, error) {
	name, p := cfg.GetDefaultProvider()
	if name == "" {
		return nil, nil
	}

	var model llms.Model
	var err error
	switch name {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(p.APIKey),
		}
		if p.Model != "" {
			opts = append(opts, openai.WithModel(p.Model))
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		model, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("provider %s is not supported", name)
	}
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}

	template, err := agent.NewPromptManager(cfg.App.PromptsDir).GetSummaryPrompt()
	if err != nil {
		log.Printf("Using built-in narration prompt: %v", err)
		template = ""
	}

	narrator := steps.NewNarrator(model, template, llms.WithTemperature(0.3))
	narrator.OnResponse(func(ctx context.Context, prompt, response string) {
		logger.LogLLM(steps.RunIDFromContext(ctx), prompt, response)
	})
	return narrator, nil
}

// buildPolicy admits chat goals for one gateway.
func buildPolicy(cfg config.PolicyConfig, allowedChats []string) (*governance.DefaultPolicyEngine, error) {
	policy := governance.NewDefaultPolicyEngine()
	policy.MaxGoalLength = cfg.MaxGoalLength
	for _, id := range allowedChats {
		policy.AllowChat(id)
	}
	for _, pattern := range cfg.DeniedPatterns {
		if err := policy.DenyGoals(pattern); err != nil {
			return nil, fmt.Errorf("policy.denied_patterns: %w", err)
		}
	}
	return policy, nil
}
