package observability

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan        EventType = "plan"
	EventTypeStep        EventType = "step"
	EventTypeResult      EventType = "result"
	EventTypeConfigError EventType = "config_error"
	EventTypePolicyCheck EventType = "policy_check"
	EventTypeHeartbeat   EventType = "heartbeat"
	EventTypeLLM         EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	ChatID    string    `json:"chat_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger writes JSON events, one per line. LLM exchanges can additionally be
// mirrored to a size-capped file.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	mirror *rotatingFile
	now    func() time.Time
}

// NewLogger writes one JSON event per line to out. A nil out discards events.
func NewLogger(out io.Writer) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{out: out, now: time.Now}
}

// WithLLMLog additionally appends LLM events to path, rotating at 10MB.
func (l *Logger) WithLLMLog(path string) *Logger {
	l.mirror = &rotatingFile{path: path, limit: 10 << 20}
	return l
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = l.now()
	}
	line, err := json.Marshal(evt)
	if err != nil {
		line, _ = json.Marshal(map[string]string{"error": "marshal event: " + err.Error()})
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(line)

	if evt.Type == EventTypeLLM && l.mirror != nil {
		if err := l.mirror.append(line); err != nil {
			log.Printf("llm log %s: %v", l.mirror.path, err)
		}
	}
}

// Helper methods for common events

func (l *Logger) LogPlan(runID, goal string, plan []string) {
	l.Log(Event{
		Type:  EventTypePlan,
		RunID: runID,
		Data: map[string]any{
			"goal":  goal,
			"steps": plan,
		},
	})
}

func (l *Logger) LogStep(runID, step, status, failure string, elapsed time.Duration) {
	data := map[string]any{
		"step":        step,
		"status":      status,
		"duration_ms": elapsed.Milliseconds(),
	}
	if failure != "" {
		data["error"] = failure
	}
	l.Log(Event{
		Type:  EventTypeStep,
		RunID: runID,
		Data:  data,
	})
}

func (l *Logger) LogResult(runID, status string, steps int) {
	l.Log(Event{
		Type:  EventTypeResult,
		RunID: runID,
		Data: map[string]any{
			"status": status,
			"steps":  steps,
		},
	})
}

func (l *Logger) LogConfigError(runID, message string) {
	l.Log(Event{
		Type:  EventTypeConfigError,
		RunID: runID,
		Data:  map[string]string{"error": message},
	})
}

func (l *Logger) LogPolicyCheck(chatID, effect, reason string) {
	l.Log(Event{
		Type:   EventTypePolicyCheck,
		ChatID: chatID,
		Data: map[string]string{
			"effect": effect,
			"reason": reason,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(runID, prompt, response string) {
	l.Log(Event{
		Type:  EventTypeLLM,
		RunID: runID,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}
