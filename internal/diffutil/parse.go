// Package diffutil implements the Diff Utilities (spec.md §4.3): unified
// diff extraction, glob matching against allow/block-lists, and cross-shard
// overlap detection. Authored fresh (the teacher delegates diff production
// to the external git binary rather than parsing diff text), loosely
// grounded on the header/hunk scanning idiom of the teacher's
// internal/adapters/git/client.go Diff/DiffFiles wrappers.
package diffutil

import "strings"

// ParsedDiff is a unified diff with its per-file touched paths extracted.
type ParsedDiff struct {
	Text         string
	TouchedPaths []string
}

// Parse extracts the unified diff starting at the first
// "diff --git a/<old> b/<new>" header (everything before is discarded) and
// collects touched paths from "--- a/…" / "+++ b/…" lines, excluding
// /dev/null and normalizing away a leading "./" (spec.md §4.3).
func Parse(raw string) ParsedDiff {
	lines := strings.Split(raw, "\n")

	start := -1
	for i, l := range lines {
		if strings.HasPrefix(l, "diff --git ") {
			start = i
			break
		}
	}
	if start == -1 {
		return ParsedDiff{Text: "", TouchedPaths: nil}
	}

	body := strings.Join(lines[start:], "\n")
	seen := make(map[string]bool)
	var touched []string

	for _, l := range lines[start:] {
		var path string
		switch {
		case strings.HasPrefix(l, "--- "):
			path = strings.TrimPrefix(l, "--- ")
		case strings.HasPrefix(l, "+++ "):
			path = strings.TrimPrefix(l, "+++ ")
		default:
			continue
		}
		path = normalizePath(path)
		if path == "" || path == "/dev/null" {
			continue
		}
		if !seen[path] {
			seen[path] = true
			touched = append(touched, path)
		}
	}

	return ParsedDiff{Text: body, TouchedPaths: touched}
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	// Strip optional a/ or b/ prefix used by git-style headers.
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		p = p[2:]
	}
	p = strings.TrimPrefix(p, "./")
	return p
}
