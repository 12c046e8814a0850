// Package report renders pipeline results for machines and for people.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rahul/liftoff/internal/agent"
	"github.com/rahul/liftoff/internal/steps"
)

// JSON renders r as indented JSON.
func JSON(r *agent.Result) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Text renders results as a short human report. Styling follows the color
// profile of the writer it was built for; plain writers get plain text.
type Text struct {
	now func() time.Time

	heading lipgloss.Style
	label   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	dim     lipgloss.Style
}

// NewText styles for w. A nil w renders plain text.
func NewText(w io.Writer) *Text {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	return &Text{
		now:     time.Now,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA")),
		label:   r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#34D399")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("#F87171")),
		dim:     r.NewStyle().Faint(true),
	}
}

// Render formats r. It never fails; missing data is simply left out.
func (t *Text) Render(r *agent.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", t.heading.Render("LAUNCH REPORT"), t.aggregate(r.Status))
	fmt.Fprintf(&b, "%s %s\n", t.label.Render("Goal:"), r.Goal)

	if r.Status == agent.AggregateNoOp {
		msg, _ := r.Data.String("message")
		if msg == "" {
			msg = "nothing to do"
		}
		fmt.Fprintf(&b, "%s\n", t.dim.Render(msg))
		return b.String()
	}

	fmt.Fprintf(&b, "%s %s\n", t.label.Render("Plan:"), strings.Join(r.Plan, " -> "))

	if line := t.launchLine(r.Data); line != "" {
		fmt.Fprintf(&b, "%s %s\n", t.label.Render("Launch:"), line)
	}

	b.WriteString("\n" + t.label.Render("Steps:") + "\n")
	width := 0
	for _, s := range r.Steps {
		width = max(width, len(s.Name))
	}
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "  %-*s  %s", width, s.Name, t.status(s.Status))
		if s.Failure != nil {
			fmt.Fprintf(&b, "  %s", t.dim.Render(s.Failure.Error()))
		}
		b.WriteString("\n")
	}

	if text, ok := r.Summary(); ok && text != "" {
		b.WriteString("\n" + t.label.Render("Summary:") + "\n")
		b.WriteString(text + "\n")
	}
	return b.String()
}

func (t *Text) launchLine(data steps.Bag) string {
	mission, _ := data.String(steps.KeyMissionName)
	raw, _ := data.String(steps.KeyLaunchDateUTC)
	if mission == "" && raw == "" {
		return ""
	}

	var parts []string
	if mission != "" {
		parts = append(parts, mission)
	}
	if rocket, ok := data.String(steps.KeyRocketName); ok && rocket != "" {
		parts = append(parts, "("+rocket+")")
	}
	if raw != "" && raw != "N/A" {
		if when, err := dateparse.ParseAny(raw); err == nil {
			parts = append(parts, fmt.Sprintf("on %s, %s",
				when.UTC().Format("2006-01-02 15:04 MST"),
				humanize.RelTime(when, t.now(), "ago", "from now")))
		} else {
			parts = append(parts, "on "+raw)
		}
	}
	return strings.Join(parts, " ")
}

func (t *Text) aggregate(a agent.Aggregate) string {
	label := "[" + string(a) + "]"
	switch a {
	case agent.AggregateSuccess:
		return t.ok.Render(label)
	case agent.AggregatePartial:
		return t.warn.Render(label)
	case agent.AggregateError:
		return t.fail.Render(label)
	}
	return t.dim.Render(label)
}

func (t *Text) status(s steps.Status) string {
	switch s {
	case steps.StatusSuccess:
		return t.ok.Render(string(s))
	case steps.StatusPartial:
		return t.warn.Render(string(s))
	}
	return t.fail.Render(string(s))
}
