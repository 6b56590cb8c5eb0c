package sharding

import (
	"sort"
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

type section struct {
	title        string
	body         []string
	goal         string
	allowedPaths []string
}

// planHeadings implements spec.md §4.9's "headings" strategy.
func planHeadings(taskText string, shardCount int) []core.Shard {
	lines := strings.Split(taskText, "\n")
	sections, preamble := splitSections(lines)

	if len(sections) == 0 {
		return []core.Shard{{ID: "shard-1", Content: taskText}}
	}

	if shardCount <= 0 {
		shardCount = len(sections)
	}

	if len(sections) <= shardCount {
		return oneShardPerSection(sections, preamble)
	}
	return greedyPack(sections, preamble, shardCount)
}

// splitSections extracts H1 lines ("# ...") outside fenced code blocks,
// each owning its body through the next H1; returns the sections plus the
// preamble text that preceded the first heading.
func splitSections(lines []string) ([]section, string) {
	var sections []section
	var preambleLines []string
	inFence := false
	var cur *section

	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			if cur != nil {
				cur.body = append(cur.body, l)
			} else {
				preambleLines = append(preambleLines, l)
			}
			continue
		}
		if !inFence && strings.HasPrefix(trimmed, "# ") {
			if cur != nil {
				sections = append(sections, finalizeSection(*cur))
			}
			cur = &section{title: strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))}
			continue
		}
		if cur != nil {
			cur.body = append(cur.body, l)
		} else {
			preambleLines = append(preambleLines, l)
		}
	}
	if cur != nil {
		sections = append(sections, finalizeSection(*cur))
	}

	return sections, strings.Join(preambleLines, "\n")
}

// finalizeSection extracts "## Goal" (first non-empty line after it) and
// "## Allowed paths" (subsequent list items) from a section's body.
func finalizeSection(s section) section {
	var goal string
	var allowed []string
	var mode string // "", "goal", "allowed"

	for _, l := range s.body {
		trimmed := strings.TrimSpace(l)
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "## goal"):
			mode = "goal"
			continue
		case strings.HasPrefix(lower, "## allowed paths"):
			mode = "allowed"
			continue
		case strings.HasPrefix(trimmed, "## "):
			mode = ""
			continue
		}
		switch mode {
		case "goal":
			if goal == "" && trimmed != "" {
				goal = trimmed
			}
		case "allowed":
			if item, ok := strings.CutPrefix(trimmed, "- "); ok {
				allowed = append(allowed, strings.TrimSpace(item))
			} else if item, ok := strings.CutPrefix(trimmed, "* "); ok {
				allowed = append(allowed, strings.TrimSpace(item))
			}
		}
	}

	s.goal = goal
	s.allowedPaths = allowed
	return s
}

func oneShardPerSection(sections []section, preamble string) []core.Shard {
	shards := make([]core.Shard, len(sections))
	for i, s := range sections {
		content := strings.Join(s.body, "\n")
		if i == 0 && preamble != "" {
			content = preamble + "\n" + content
		}
		shards[i] = core.Shard{
			ID:           shardID(i),
			Title:        s.title,
			Goal:         s.goal,
			Content:      content,
			AllowedPaths: s.allowedPaths,
		}
	}
	return shards
}

// greedyPack sorts sections by line count descending and places each into
// the currently-smallest bin (spec.md §4.9's greedy-by-size pack).
func greedyPack(sections []section, preamble string, shardCount int) []core.Shard {
	order := make([]int, len(sections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(sections[order[a]].body) > len(sections[order[b]].body)
	})

	bins := make([][]int, shardCount)
	binLines := make([]int, shardCount)

	for _, idx := range order {
		smallest := 0
		for b := 1; b < shardCount; b++ {
			if binLines[b] < binLines[smallest] {
				smallest = b
			}
		}
		bins[smallest] = append(bins[smallest], idx)
		binLines[smallest] += len(sections[idx].body)
	}

	var shards []core.Shard
	for i, bin := range bins {
		if len(bin) == 0 {
			continue
		}
		sort.Ints(bin) // preserve original document order within a bin
		var contentParts []string
		var titles []string
		allowSeen := map[string]bool{}
		var allowed []string
		for _, idx := range bin {
			s := sections[idx]
			contentParts = append(contentParts, "# "+s.title+"\n"+strings.Join(s.body, "\n"))
			titles = append(titles, s.title)
			for _, p := range s.allowedPaths {
				if !allowSeen[p] {
					allowSeen[p] = true
					allowed = append(allowed, p)
				}
			}
		}
		content := strings.Join(contentParts, "\n\n")
		if len(shards) == 0 && preamble != "" {
			content = preamble + "\n" + content
		}
		shards = append(shards, core.Shard{
			ID:           shardID(len(shards)),
			Title:        joinTitles(titles),
			Content:      content,
			AllowedPaths: allowed,
		})
	}
	return shards
}

func joinTitles(titles []string) string {
	if len(titles) > 3 {
		titles = titles[:3]
	}
	return strings.Join(titles, " / ")
}

func shardID(i int) string {
	return "shard-" + itoa(i+1)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
