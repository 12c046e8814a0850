package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePrompts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestPromptManager_GetSummaryPrompt(t *testing.T) {
	dir := writePrompts(t, map[string]string{
		"summary.md": "Rewrite this draft: {{.draft}}",
		"persona.md": "You are a launch controller.",
		"style.md":   "Be brief.",
		"extra.md":   "Mention the pad.",
		"blank.md":   "  \n",
		"notes.txt":  "Ignored Content",
	})

	prompt, err := NewPromptManager(dir).GetSummaryPrompt()
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(prompt, "Ignored Content") {
		t.Error("Non-markdown files should be ignored")
	}
	if strings.Contains(prompt, "---\n\n\n") || strings.Count(prompt, "---") != 3 {
		t.Errorf("Blank fragments should be skipped, got %q", prompt)
	}

	order := []string{"launch controller", "Be brief", "{{.draft}}", "Mention the pad"}
	last := -1
	for _, part := range order {
		idx := strings.Index(prompt, part)
		if idx < 0 {
			t.Fatalf("Prompt missing expected part: %s", part)
		}
		if idx <= last {
			t.Errorf("%q is out of order", part)
		}
		last = idx
	}
}

func TestPromptManager_RequiresDraft(t *testing.T) {
	dir := writePrompts(t, map[string]string{"persona.md": "You are a launch controller."})
	if _, err := NewPromptManager(dir).GetSummaryPrompt(); err == nil {
		t.Error("Expected error for a prompt without the draft placeholder")
	}
}

func TestPromptManager_Empty(t *testing.T) {
	pm := NewPromptManager(t.TempDir())
	if _, err := pm.GetSummaryPrompt(); err == nil {
		t.Error("Expected error for a directory without prompts")
	}

	pm = NewPromptManager(filepath.Join(t.TempDir(), "missing"))
	if _, err := pm.GetSummaryPrompt(); err == nil {
		t.Error("Expected error for a missing directory")
	}
}
