package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/rahul/liftoff/internal/steps"
)

// KeyStatus is the bag key holding the aggregate status of a run.
const KeyStatus = "status"

// Aggregate is the overall status of a pipeline run.
type Aggregate string

const (
	AggregateSuccess Aggregate = "success"
	AggregatePartial Aggregate = "partial"
	AggregateError   Aggregate = "error"
	AggregateNoOp    Aggregate = "no-op"
)

// StepReport describes how one planned step went.
type StepReport struct {
	Name     string         `json:"name"`
	Status   steps.Status   `json:"status"`
	Failure  *steps.Failure `json:"failure,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// Result is the outcome of one pipeline run. Data is the final bag, holding
// every step's fields, the "<step>_status" entries and the aggregate "status".
type Result struct {
	RunID  string       `json:"run_id"`
	Goal   string       `json:"goal"`
	Plan   []string     `json:"plan"`
	Status Aggregate    `json:"status"`
	Steps  []StepReport `json:"steps"`
	Data   steps.Bag    `json:"data"`
}

// Failures returns the failure descriptor of every step that reported one.
func (r *Result) Failures() map[string]*steps.Failure {
	out := make(map[string]*steps.Failure)
	for _, s := range r.Steps {
		if s.Failure != nil {
			out[s.Name] = s.Failure
		}
	}
	return out
}

// Summary returns the summary text, if a summary step produced one.
func (r *Result) Summary() (string, bool) {
	return r.Data.String(steps.KeySummaryText)
}

func aggregate(reports []StepReport) Aggregate {
	if len(reports) == 0 {
		return AggregateNoOp
	}
	agg := AggregateSuccess
	for _, r := range reports {
		switch r.Status {
		case steps.StatusSuccess:
		case steps.StatusPartial:
			agg = AggregatePartial
		default:
			return AggregateError
		}
	}
	return agg
}

// ConfigError reports planned steps that have no registered implementation.
// No step runs when it is returned.
type ConfigError struct {
	Missing    []string
	Registered []string
}

func (e *ConfigError) Error() string {
	registered := "none"
	if len(e.Registered) > 0 {
		registered = strings.Join(e.Registered, ", ")
	}
	return fmt.Sprintf("configuration error: no step registered for %s (registered: %s)",
		strings.Join(e.Missing, ", "), registered)
}
