package tasksplit

import "strings"

// block is one top-level (H1) section of a task document, the unit the
// Task Splitter chunks around (spec.md §4.11 step 6). Grounded on
// internal/sharding/headings.go's fence-aware H1 scan, reused here for
// the splitter's own heading-level-1 pass rather than duplicated.
type block struct {
	title string
	body  string // includes the "# title" line itself
}

// splitBlocks scans lines for H1 ("# ") markers outside fenced code
// blocks, same fence-toggle discipline as internal/sharding/headings.go's
// splitSections. Preamble text before the first heading becomes block 0
// with an empty title.
func splitBlocks(text string) []block {
	lines := strings.Split(text, "\n")
	var blocks []block
	var cur *block
	inFence := false

	flush := func() {
		if cur != nil {
			cur.body = strings.TrimRight(cur.body, "\n")
			blocks = append(blocks, *cur)
			cur = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			flush()
			cur = &block{title: strings.TrimSpace(strings.TrimPrefix(line, "# "))}
		}
		if cur == nil {
			cur = &block{}
		}
		cur.body += line + "\n"
	}
	flush()

	var out []block
	for _, b := range blocks {
		if strings.TrimSpace(b.body) != "" {
			out = append(out, b)
		}
	}
	return out
}

// headingCount returns the number of H1 sections (ignoring any leading
// preamble block with an empty title), the "heading count" spec.md's
// decision heuristic and LLM-plan gate both reference.
func headingCount(blocks []block) int {
	n := 0
	for _, b := range blocks {
		if b.title != "" {
			n++
		}
	}
	return n
}
