package diffutil

import (
	"path/filepath"
	"strings"
)

// MatchPath reports whether path matches pattern per spec.md §4.3:
// the sentinel "**" matches everything; patterns of the form "prefix/**"
// match any path under that directory prefix; any other pattern is matched
// with shell-glob semantics via path/filepath.Match (stdlib — no glob
// library appears anywhere in the retrieved example pack, a justified
// stdlib edge recorded in DESIGN.md).
func MatchPath(pattern, path string) bool {
	pattern = filepath.ToSlash(pattern)
	path = filepath.ToSlash(path)

	if pattern == "**" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}

	if ok, _ := filepath.Match(pattern, path); ok {
		return true
	}
	// filepath.Match does not cross "/" for "*"; also try matching against
	// the base name alone, so bare patterns like "*.go" work against any
	// directory depth, matching common allow/block-list authoring style.
	if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
		return true
	}
	return false
}

// MatchAny reports whether path matches any of patterns.
func MatchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if MatchPath(p, path) {
			return true
		}
	}
	return false
}

// Allowed applies an allow-list then a block-list: if allow is non-empty,
// path must match at least one allow pattern; then path must not match any
// block pattern (spec.md §4.4 diff-safety gating, reused here since both
// C3 and C4 share the same glob semantics).
func Allowed(path string, allow, block []string) bool {
	if len(allow) > 0 && !MatchAny(allow, path) {
		return false
	}
	if MatchAny(block, path) {
		return false
	}
	return true
}
