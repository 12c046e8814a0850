package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/liftoff/internal/observability"
	"github.com/rahul/liftoff/internal/steps"
)

// Trigger maps goal keywords onto a step name.
type Trigger struct {
	Step     string
	Keywords []string
}

// DefaultTriggers is the canonical trigger table. Table order is execution
// order, whatever order the keywords appear in the goal.
var DefaultTriggers = []Trigger{
	{Step: "spacex", Keywords: []string{"spacex", "next launch"}},
	{Step: "weather", Keywords: []string{"weather"}},
	{Step: "summary", Keywords: []string{"summar"}},
}

const noStepsMessage = "no steps identified for the goal"

// Planner turns a goal into an ordered plan and runs it step by step,
// threading one bag through every step.
type Planner struct {
	triggers []Trigger
	logger   *observability.Logger
	tracker  *observability.Tracker
	newRunID func() string
}

type Option func(*Planner)

func WithTriggers(triggers []Trigger) Option {
	return func(p *Planner) { p.triggers = triggers }
}

func WithLogger(l *observability.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

func WithTracker(t *observability.Tracker) Option {
	return func(p *Planner) { p.tracker = t }
}

func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		triggers: DefaultTriggers,
		tracker:  observability.NewTracker(),
		newRunID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan scans goal case-insensitively for trigger keywords. A step appears at
// most once. The result is empty when nothing matches.
func (p *Planner) Plan(goal string) []string {
	lower := strings.ToLower(goal)
	plan := []string{}
	seen := make(map[string]bool)

	for _, t := range p.triggers {
		if seen[t.Step] {
			continue
		}
		for _, kw := range t.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				plan = append(plan, t.Step)
				seen[t.Step] = true
				break
			}
		}
	}
	return plan
}

// Check plans goal and verifies that every planned step is registered,
// without executing anything.
func (p *Planner) Check(goal string, registry *steps.Registry) ([]string, error) {
	plan := p.Plan(goal)
	if len(plan) == 0 {
		return plan, nil
	}
	_, err := resolve(plan, registry)
	return plan, err
}

// Run plans goal and executes every planned step in order. Step failures are
// recorded in the result and never stop the run. The only error returned is a
// *ConfigError, raised before any step executes.
func (p *Planner) Run(ctx context.Context, goal string, registry *steps.Registry) (*Result, error) {
	runID := p.newRunID()
	ctx = steps.ContextWithRunID(ctx, runID)
	p.tracker.Set(observability.StatePlanning, "")

	plan := p.Plan(goal)
	p.logger.LogPlan(runID, goal, plan)
	log.Printf("[ PLAN ] %q -> %v", goal, plan)

	result := &Result{
		RunID: runID,
		Goal:  goal,
		Plan:  plan,
		Steps: []StepReport{},
	}

	if len(plan) == 0 {
		result.Status = AggregateNoOp
		result.Data = steps.Bag{
			KeyStatus: string(AggregateNoOp),
			"message": noStepsMessage,
		}
		p.finish(result)
		return result, nil
	}

	resolved, err := resolve(plan, registry)
	if err != nil {
		p.logger.LogConfigError(runID, err.Error())
		log.Printf("[ FAIL ] %v", err)
		p.tracker.Set(observability.StateIdle, "")
		return nil, err
	}

	data := steps.Bag{}
	for _, s := range resolved {
		name := s.Name()
		p.tracker.Set(observability.StateExecuting, name)

		start := time.Now()
		out := execute(ctx, s, data)
		elapsed := time.Since(start)

		data = apply(data, name, out)

		report := StepReport{Name: name, Status: out.Status, Failure: out.Err, Duration: elapsed}
		result.Steps = append(result.Steps, report)

		failure := ""
		if out.Err != nil {
			failure = out.Err.Error()
		}
		p.logger.LogStep(runID, name, string(out.Status), failure, elapsed)
		log.Printf("[ STEP ] %s: %s", name, out.Status)
	}

	result.Status = aggregate(result.Steps)
	result.Data = data.With(KeyStatus, string(result.Status))
	p.finish(result)
	return result, nil
}

func (p *Planner) finish(r *Result) {
	p.tracker.Set(observability.StateDone, "")
	p.logger.LogResult(r.RunID, string(r.Status), len(r.Steps))
}

// resolve looks every planned name up before anything runs.
func resolve(plan []string, registry *steps.Registry) ([]steps.Step, error) {
	resolved := make([]steps.Step, 0, len(plan))
	var missing []string
	for _, name := range plan {
		s, ok := registry.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		resolved = append(resolved, s)
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Missing: missing, Registered: registry.Names()}
	}
	return resolved, nil
}

// execute hands the step a private copy of the bag and converts a panic or a
// malformed outcome into an Error outcome.
func execute(ctx context.Context, s steps.Step, in steps.Bag) (out steps.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = steps.Fail(steps.FailureInternal, fmt.Errorf("step panicked: %v", r), nil)
		}
	}()

	out = s.Execute(ctx, in.Clone())
	switch out.Status {
	case steps.StatusSuccess, steps.StatusPartial, steps.StatusError:
	default:
		out = steps.Fail(steps.FailureInternal, fmt.Errorf("step returned unknown status %q", out.Status), out.Fields)
	}
	if out.Status == steps.StatusError && out.Err == nil {
		out.Err = &steps.Failure{Kind: steps.FailureInternal, Message: "step reported an error without details"}
	}
	return out
}

// apply merges an outcome into the bag. The step's own status and error keys
// are written last so a step cannot mask its own result.
func apply(data steps.Bag, name string, out steps.Outcome) steps.Bag {
	updates := out.Fields.Clone()
	updates[steps.StatusKey(name)] = out.Status
	if out.Err != nil {
		updates[steps.ErrorKey(name)] = out.Err.Message
	}
	return data.Merge(updates)
}
