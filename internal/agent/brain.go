package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/rahul/liftoff/internal/governance"
	"github.com/rahul/liftoff/internal/observability"
	"github.com/rahul/liftoff/internal/steps"
)

// Brain answers a free-text request from a chat.
type Brain interface {
	Think(ctx context.Context, chatID string, input string) (string, error)
}

// Renderer formats a pipeline result for a human reader.
type Renderer func(*Result) string

// PipelineBrain answers chat goals by running the planner over a fixed
// registry and rendering the result.
type PipelineBrain struct {
	Planner  *Planner
	Registry *steps.Registry
	Policy   governance.PolicyEngine
	Render   Renderer
	Logger   *observability.Logger
}

func NewPipelineBrain(planner *Planner, registry *steps.Registry, policy governance.PolicyEngine, render Renderer, logger *observability.Logger) *PipelineBrain {
	return &PipelineBrain{
		Planner:  planner,
		Registry: registry,
		Policy:   policy,
		Render:   render,
		Logger:   logger,
	}
}

func (b *PipelineBrain) Think(ctx context.Context, chatID string, input string) (string, error) {
	if b.Policy != nil {
		verdict, err := b.Policy.Evaluate(ctx, governance.Request{Goal: input, ChatID: chatID})
		if err != nil {
			return "", fmt.Errorf("policy evaluation: %w", err)
		}
		b.Logger.LogPolicyCheck(chatID, string(verdict.Effect), verdict.Reason)
		if verdict.Effect == governance.EffectDeny {
			log.Printf("[ DENY ] chat %s: %s", chatID, verdict.Reason)
			return "Request declined: " + verdict.Reason, nil
		}
	}

	result, err := b.Planner.Run(ctx, input, b.Registry)
	if err != nil {
		return "", err
	}

	if b.Render != nil {
		return b.Render(result), nil
	}
	if text, ok := result.Summary(); ok {
		return text, nil
	}
	return fmt.Sprintf("Pipeline finished with status %s.", result.Status), nil
}
