package observability

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	ansiReset = "\033[0m"
	ansiCyan  = "\033[96m"
	ansiAmber = "\033[93m"
	ansiRed   = "\033[91m"
)

// Screen layout in serve mode: banner on top, one status row, logs scroll
// below.
const (
	statusRow = 10
	logTop    = 12
)

// termMu serialises every terminal write so the status redraw, which saves
// and restores the cursor, is never split by a log line.
var termMu sync.Mutex

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

type termWriter struct {
	out io.Writer
}

func (tw termWriter) Write(p []byte) (int, error) {
	termMu.Lock()
	defer termMu.Unlock()
	return tw.out.Write(p)
}

// NewTermWriter returns a stderr writer for log.SetOutput that never
// interleaves with PrintLiveStatus.
func NewTermWriter() io.Writer {
	return termWriter{out: os.Stderr}
}

const banner = `
 _     ___ _____ _____ ___  _____ _____
| |   |_ _|  ___|_   _/ _ \|  ___|  ___|
| |    | || |_    | || | | | |_  | |_
| |___ | ||  _|   | || |_| |  _| |  _|
|_____|___|_|     |_| \___/|_|   |_|

      >> LAUNCH WEATHER PIPELINE <<
`

// PrintBanner writes the banner to w, centred as one block for width columns.
func PrintBanner(w io.Writer, width int) {
	lines := strings.Split(strings.Trim(banner, "\n"), "\n")
	widest := 0
	for _, l := range lines {
		widest = max(widest, len(l))
	}
	pad := strings.Repeat(" ", max(0, (width-widest)/2))
	for _, l := range lines {
		fmt.Fprintf(w, "%s%s%s%s\n", pad, ansiCyan, l, ansiReset)
	}
	fmt.Fprintln(w)
}

// PrintTerminalBanner clears the screen and prints the banner sized to stdout.
func PrintTerminalBanner() {
	termMu.Lock()
	defer termMu.Unlock()
	fmt.Print("\033[2J\033[H")
	PrintBanner(os.Stdout, termWidth())
}

// InitializeTerminal confines scrolling to the log region below the status row.
func InitializeTerminal() {
	fmt.Printf("\033[%d;r\033[%d;1H", logTop, logTop)
}

func CleanupTerminal() {
	fmt.Print("\033[r\033[2J\033[H")
}

// pulse grades the time since the last heartbeat.
func pulse(since time.Duration) (label, color string) {
	switch {
	case since < 40*time.Second:
		return "HEALTHY", ansiCyan
	case since < 90*time.Second:
		return "LAGGING", ansiAmber
	}
	return "OFFLINE", ansiRed
}

// lastRun lists the steps executed since the most recent planning transition.
func lastRun(history []Transition) []string {
	start := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].State == StatePlanning {
			start = i
			break
		}
	}
	var names []string
	for _, tr := range history[start:] {
		if tr.State == StateExecuting && tr.Step != "" {
			names = append(names, tr.Step)
		}
	}
	return names
}

// StatusLine renders the one-line dashboard for t without cursor positioning.
func StatusLine(t *Tracker) string {
	state, step, lastHB := t.Get()
	label, color := pulse(time.Since(lastHB))

	if step == "" {
		step = "waiting"
	}
	if len(step) > 25 {
		step = step[:22] + "..."
	}

	run := strings.Join(lastRun(t.Transitions()), ">")
	if run == "" {
		run = "-"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return fmt.Sprintf("%s[%s]%s %-9s | step %-25s | last run %s | up %v | %.1fMB",
		color, label, ansiReset,
		state, step, run,
		time.Since(startTime).Round(time.Second),
		float64(m.Alloc)/1024/1024,
	)
}

// PrintLiveStatus redraws the status row in place.
func PrintLiveStatus(t *Tracker) {
	line := fmt.Sprintf("\033[s\033[%d;1H\033[K%s\033[u", statusRow, StatusLine(t))

	termMu.Lock()
	fmt.Print(line)
	termMu.Unlock()
}
