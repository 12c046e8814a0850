package steps

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Status is the per-step outcome recorded under "<step>_status".
type Status string

const (
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
	StatusPartial Status = "PartialData"
)

// FailureKind classifies why a step could not produce its full output.
type FailureKind string

const (
	FailureMissingInput      FailureKind = "missing_input"
	FailureConfiguration     FailureKind = "configuration"
	FailureTransport         FailureKind = "transport"
	FailureMalformedResponse FailureKind = "malformed_response"
	FailureInternal          FailureKind = "internal"
)

// Failure describes a step-local error. It never leaves the step as a Go error;
// the planner turns it into status data.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Outcome is what a step hands back to the planner: the fields it contributes
// and how complete they are.
type Outcome struct {
	Status Status
	Fields Bag
	Err    *Failure
}

// Success reports a complete result.
func Success(fields Bag) Outcome {
	return Outcome{Status: StatusSuccess, Fields: fields}
}

// Partial reports a best-effort result. note explains what is missing.
func Partial(fields Bag, note string) Outcome {
	o := Outcome{Status: StatusPartial, Fields: fields}
	if note != "" {
		o.Err = &Failure{Kind: FailureMissingInput, Message: note}
	}
	return o
}

// Fail reports an error. fields may carry whatever was obtained before it.
func Fail(kind FailureKind, err error, fields Bag) Outcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Outcome{
		Status: StatusError,
		Fields: fields,
		Err:    &Failure{Kind: kind, Message: msg},
	}
}

// StatusKey is the bag key a step's status is written under.
func StatusKey(step string) string {
	return step + "_status"
}

// ErrorKey is the bag key a step's failure message is written under.
func ErrorKey(step string) string {
	return step + "_error"
}

// Step is one pluggable unit of work in a pipeline.
//
// Execute receives a private copy of the bag and must not panic or block
// without bound; all problems are reported through the returned Outcome.
type Step interface {
	Name() string
	Description() string
	Execute(ctx context.Context, in Bag) Outcome
}

var ErrDuplicateStep = errors.New("step already registered")

// Registry maps step names to implementations. It is built once at startup
// and only read afterwards.
type Registry struct {
	steps map[string]Step
}

func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
	}
}

func (r *Registry) Register(s Step) error {
	if _, ok := r.steps[s.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, s.Name())
	}
	r.steps[s.Name()] = s
	return nil
}

func (r *Registry) Get(name string) (Step, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.steps[name]
	return s, ok
}

// Names returns the registered step names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type runIDKey struct{}

// ContextWithRunID tags ctx with the pipeline run a step executes in.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID set by ContextWithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
