package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// DefaultNarrationPrompt is used when no summary prompt file is configured.
const DefaultNarrationPrompt = `You are a launch operations assistant. Rewrite the draft report below as a short,
plain paragraph for a general audience. Keep every fact, do not invent new ones, and keep the delay
assessment as the final sentence.

Mission: {{.mission}}
Launch date (UTC): {{.launch_date}}
Rocket: {{.rocket}}
Launch site: {{.site}}
Weather: {{.conditions}}

Draft report:
{{.draft}}

Delay assessment:
{{.delay_risk}}`

var narrationVars = []string{"mission", "launch_date", "rocket", "site", "conditions", "draft", "delay_risk"}

// Narrator turns the templated summary into prose using an LLM.
type Narrator struct {
	model   llms.Model
	prompt  prompts.PromptTemplate
	opts    []llms.CallOption
	observe func(ctx context.Context, prompt, response string)
}

func NewNarrator(model llms.Model, template string, opts ...llms.CallOption) *Narrator {
	if strings.TrimSpace(template) == "" {
		template = DefaultNarrationPrompt
	}
	return &Narrator{
		model:  model,
		prompt: prompts.NewPromptTemplate(template, narrationVars),
		opts:   opts,
	}
}

// OnResponse registers fn to see every prompt/response pair, with the ctx
// Narrate was called with.
func (n *Narrator) OnResponse(fn func(ctx context.Context, prompt, response string)) *Narrator {
	n.observe = fn
	return n
}

// Narrate renders the prompt with values and returns the model's text.
func (n *Narrator) Narrate(ctx context.Context, values map[string]any) (string, error) {
	prompt, err := n.prompt.Format(values)
	if err != nil {
		return "", fmt.Errorf("format narration prompt: %w", err)
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, n.model, prompt, n.opts...)
	if n.observe != nil {
		n.observe(ctx, prompt, out)
	}
	if err != nil {
		return "", fmt.Errorf("narration: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("narration: empty response")
	}
	return out, nil
}
