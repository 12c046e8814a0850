package observability

import (
	"sync"
	"time"
)

// State is the pipeline run state: Idle -> Planning -> Executing -> Done.
type State string

const (
	StateIdle      State = "IDLE"
	StatePlanning  State = "PLANNING"
	StateExecuting State = "EXECUTING"
	StateDone      State = "DONE"
)

// maxTransitions bounds the transition history kept per tracker.
const maxTransitions = 64

// Transition records one state change.
type Transition struct {
	State State
	Step  string
	At    time.Time
}

// Tracker holds the current pipeline state for status displays.
type Tracker struct {
	mu            sync.RWMutex
	state         State
	step          string
	lastHeartbeat time.Time
	history       []Transition
}

func NewTracker() *Tracker {
	return &Tracker{
		state:         StateIdle,
		lastHeartbeat: time.Now(),
	}
}

// Set moves the tracker to state; step names the running step, if any.
func (t *Tracker) Set(state State, step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.step = step
	t.history = append(t.history, Transition{State: state, Step: step, At: time.Now()})
	if len(t.history) > maxTransitions {
		t.history = t.history[len(t.history)-maxTransitions:]
	}
}

// Get retrieves the current state, step and last heartbeat.
func (t *Tracker) Get() (State, string, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.step, t.lastHeartbeat
}

// Transitions returns a copy of the recorded history, oldest first.
func (t *Tracker) Transitions() []Transition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Transition, len(t.history))
	copy(out, t.history)
	return out
}

// Heartbeat updates the last heartbeat time.
func (t *Tracker) Heartbeat() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastHeartbeat = time.Now()
}

var globalStatus = NewTracker()

// Global returns the process-wide tracker used by the live status line.
func Global() *Tracker {
	return globalStatus
}

// Heartbeat updates the global tracker's heartbeat.
func Heartbeat() {
	globalStatus.Heartbeat()
}
