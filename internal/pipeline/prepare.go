package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/prompt"
)

// PreparedTask is the result of spec.md §4.10 step 2.
type PreparedTask struct {
	InPrompt string // what roles see as the "task" context entry
	FullPath string // "" unless the full text was spilled to disk
}

// prepareTask loads an "@path"-referenced task file if needed, and spills
// the full text to {run_dir}/task_full.md when it exceeds inlineMaxChars,
// replacing the in-prompt copy with a summary plus a "[VOLLTEXT: <path>]"
// marker (spec.md §4.10 step 2).
func prepareTask(workdir, raw string, inlineMaxChars int, runDir string) (PreparedTask, error) {
	text := raw
	if strings.HasPrefix(raw, "@") {
		rel := strings.TrimPrefix(raw, "@")
		path := rel
		if !filepath.IsAbs(path) {
			path = filepath.Join(workdir, rel)
		}
		data, err := fsutil.ReadFileScoped(path)
		if err != nil {
			return PreparedTask{}, core.ErrValidation("TASK_FILE_UNREADABLE",
				fmt.Sprintf("reading task file %q: %v", path, err))
		}
		text = string(data)
	}

	if inlineMaxChars <= 0 || len(text) <= inlineMaxChars {
		return PreparedTask{InPrompt: text}, nil
	}

	fullPath := filepath.Join(runDir, "task_full.md")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return PreparedTask{}, core.ErrState(core.CodeStateCorrupted, "creating run dir: "+err.Error())
	}
	if err := fsutil.AtomicWriteFile(fullPath, []byte(text), 0o644); err != nil {
		return PreparedTask{}, core.ErrState(core.CodeStateCorrupted, "writing task_full.md: "+err.Error())
	}

	summary := prompt.Summarize(text, inlineMaxChars)
	inPrompt := fmt.Sprintf("%s\n[VOLLTEXT: %s]", summary, fullPath)
	return PreparedTask{InPrompt: inPrompt, FullPath: fullPath}, nil
}
