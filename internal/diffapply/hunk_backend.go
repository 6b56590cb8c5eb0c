package diffapply

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
)

// HunkBackend is the internal fallback diff engine (spec.md §4.4): it
// splits a unified diff into per-file blocks, parses each hunk header
// ("@@ -a,b +c,d @@"), and walks context/minus lines against the current
// file content line-by-line, inserting plus lines. No teacher twin exists
// (the teacher always shells out to git); authored fresh from the spec's
// hunk-application algorithm.
type HunkBackend struct{}

// NewHunkBackend constructs a HunkBackend.
func NewHunkBackend() *HunkBackend { return &HunkBackend{} }

type fileBlock struct {
	oldPath string
	newPath string
	hunks   []hunk
}

type hunk struct {
	oldStart int
	lines    []hunkLine
}

type hunkLine struct {
	kind byte // ' ', '+', '-'
	text string
}

func (b *HunkBackend) Check(_ context.Context, workdir, diffText string) error {
	blocks, err := splitBlocks(diffText)
	if err != nil {
		return err
	}
	for _, blk := range blocks {
		if _, err := applyBlock(workdir, blk, true); err != nil {
			return err
		}
	}
	return nil
}

func (b *HunkBackend) Apply(_ context.Context, workdir, diffText string) error {
	blocks, err := splitBlocks(diffText)
	if err != nil {
		return err
	}
	for _, blk := range blocks {
		result, err := applyBlock(workdir, blk, false)
		if err != nil {
			return err
		}
		if result.deleted {
			if err := os.Remove(filepath.Join(workdir, filepath.FromSlash(blk.oldPath))); err != nil && !os.IsNotExist(err) {
				return err
			}
			continue
		}
		dest := filepath.Join(workdir, filepath.FromSlash(blk.newPath))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := fsutil.AtomicWriteFile(dest, []byte(result.content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// splitBlocks breaks a unified diff into per-file blocks delimited by
// "diff --git" headers (or, absent those, "--- "/"+++ " pairs).
func splitBlocks(diffText string) ([]fileBlock, error) {
	lines := strings.Split(diffText, "\n")
	var blocks []fileBlock
	var cur *fileBlock
	var curHunk *hunk

	flushHunk := func() {
		if cur != nil && curHunk != nil {
			cur.hunks = append(cur.hunks, *curHunk)
			curHunk = nil
		}
	}
	flushBlock := func() {
		flushHunk()
		if cur != nil {
			blocks = append(blocks, *cur)
			cur = nil
		}
	}

	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "diff --git "):
			flushBlock()
			cur = &fileBlock{}
		case strings.HasPrefix(l, "--- "):
			if cur == nil {
				cur = &fileBlock{}
			}
			cur.oldPath = normalizeSide(strings.TrimPrefix(l, "--- "))
		case strings.HasPrefix(l, "+++ "):
			if cur == nil {
				cur = &fileBlock{}
			}
			cur.newPath = normalizeSide(strings.TrimPrefix(l, "+++ "))
		case strings.HasPrefix(l, "@@ "):
			flushHunk()
			start, err := parseHunkHeader(l)
			if err != nil {
				return nil, err
			}
			curHunk = &hunk{oldStart: start}
		case strings.HasPrefix(l, "\\ No newline at end of file"):
			// tolerated, no structural effect
		case cur != nil && curHunk != nil && len(l) > 0:
			curHunk.lines = append(curHunk.lines, hunkLine{kind: l[0], text: l[1:]})
		case cur != nil && curHunk != nil && len(l) == 0:
			curHunk.lines = append(curHunk.lines, hunkLine{kind: ' ', text: ""})
		}
	}
	flushBlock()
	return blocks, nil
}

func normalizeSide(p string) string {
	p = strings.TrimSpace(p)
	if idx := strings.IndexByte(p, '\t'); idx >= 0 {
		p = p[:idx]
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		p = p[2:]
	}
	return strings.TrimPrefix(p, "./")
}

// parseHunkHeader extracts the old-file starting line from "@@ -a,b +c,d @@".
func parseHunkHeader(l string) (int, error) {
	inner := strings.TrimPrefix(l, "@@ ")
	parts := strings.Fields(inner)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "-") {
		return 0, core.ErrExecution(core.CodeHunkMismatch, "malformed hunk header: "+l)
	}
	oldSpec := strings.TrimPrefix(parts[0], "-")
	startStr, _, _ := strings.Cut(oldSpec, ",")
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return 0, core.ErrExecution(core.CodeHunkMismatch, "malformed hunk header: "+l)
	}
	return start, nil
}

type blockResult struct {
	content string
	deleted bool
}

// applyBlock walks each hunk's context/minus lines against the current
// file content, line-by-line, and inserts plus lines (spec.md §4.4).
// /dev/null on the left means create; on the right means delete.
// dryRun performs the same matching without constructing output, for Check.
func applyBlock(workdir string, blk fileBlock, dryRun bool) (blockResult, error) {
	creating := blk.oldPath == "/dev/null" || blk.oldPath == ""
	deleting := blk.newPath == "/dev/null"

	var original []string
	if !creating {
		data, err := fsutil.ReadFileScoped(filepath.Join(workdir, filepath.FromSlash(blk.oldPath)))
		if err != nil {
			return blockResult{}, core.ErrExecution(core.CodeHunkMismatch, fmt.Sprintf("cannot read %s: %v", blk.oldPath, err))
		}
		original = strings.Split(string(data), "\n")
	}

	var out []string
	cursor := 0 // 0-indexed position in original

	for _, h := range blk.hunks {
		// Copy unmodified lines up to the hunk start (1-indexed oldStart).
		target := h.oldStart - 1
		if target < 0 {
			target = 0
		}
		for cursor < target && cursor < len(original) {
			out = append(out, original[cursor])
			cursor++
		}

		for _, hl := range h.lines {
			switch hl.kind {
			case ' ':
				if cursor >= len(original) || original[cursor] != hl.text {
					return blockResult{}, core.ErrExecution(core.CodeHunkMismatch,
						fmt.Sprintf("%s: context mismatch at line %d", blk.oldPath, cursor+1))
				}
				out = append(out, original[cursor])
				cursor++
			case '-':
				if cursor >= len(original) || original[cursor] != hl.text {
					return blockResult{}, core.ErrExecution(core.CodeHunkMismatch,
						fmt.Sprintf("%s: removed-line mismatch at line %d", blk.oldPath, cursor+1))
				}
				cursor++
			case '+':
				out = append(out, hl.text)
			default:
				return blockResult{}, core.ErrExecution(core.CodeUnknownLinePrefix,
					fmt.Sprintf("%s: unknown diff line prefix %q", blk.oldPath, hl.kind))
			}
		}
	}

	for cursor < len(original) {
		out = append(out, original[cursor])
		cursor++
	}

	if dryRun {
		return blockResult{}, nil
	}
	if deleting {
		return blockResult{deleted: true}, nil
	}
	return blockResult{content: strings.Join(out, "\n")}, nil
}
