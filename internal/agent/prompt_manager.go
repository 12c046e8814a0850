package agent

import (
	"cmp"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// draftPlaceholder is the template field holding the templated summary.
const draftPlaceholder = "{{.draft}}"

// fragmentRank orders the well-known narration fragments; any other
// fragment follows them by name.
var fragmentRank = map[string]int{
	"persona.md": 0,
	"style.md":   1,
	"summary.md": 2,
}

func rank(name string) int {
	if r, ok := fragmentRank[name]; ok {
		return r
	}
	return len(fragmentRank)
}

// PromptManager assembles the summary narration prompt from a directory of
// markdown fragments.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// GetSummaryPrompt joins the non-empty .md fragments with a horizontal rule.
// The result must reference {{.draft}}.
func (pm *PromptManager) GetSummaryPrompt() (string, error) {
	names, err := pm.fragments()
	if err != nil {
		return "", err
	}

	var parts []string
	for _, name := range names {
		path := filepath.Join(pm.Directory, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: skipping prompt fragment %s: %v", path, err)
			continue
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no prompt fragments found in %s", pm.Directory)
	}
	prompt := strings.Join(parts, "\n\n---\n\n")
	if !strings.Contains(prompt, draftPlaceholder) {
		return "", fmt.Errorf("prompt fragments in %s never reference %s", pm.Directory, draftPlaceholder)
	}
	return prompt, nil
}

func (pm *PromptManager) fragments() ([]string, error) {
	entries, err := os.ReadDir(pm.Directory)
	if err != nil {
		return nil, fmt.Errorf("read prompts directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".md" {
			names = append(names, e.Name())
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return names, nil
}
