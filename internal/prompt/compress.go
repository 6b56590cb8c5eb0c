package prompt

import (
	"strings"
)

const minFloorChars = 256

// Summarize returns text unchanged if it is at most n chars; otherwise it
// returns head(n/2) + "\n...\n" + tail(n/2), per spec.md §4.8.
func Summarize(text string, n int) string {
	if len(text) <= n {
		return text
	}
	half := n / 2
	head := text[:half]
	tail := text[len(text)-half:]
	return head + "\n...\n" + tail
}

// EffectiveLimit computes min(max_prompt_chars, max_prompt_tokens*token_chars)
// over whichever of the two budgets is set (spec.md §4.8).
func EffectiveLimit(maxPromptChars, maxPromptTokens *int, tokenChars int) int {
	var limit int
	haveLimit := false

	if maxPromptChars != nil {
		limit = *maxPromptChars
		haveLimit = true
	}
	if maxPromptTokens != nil {
		tokenLimit := *maxPromptTokens * tokenChars
		if !haveLimit || tokenLimit < limit {
			limit = tokenLimit
		}
		haveLimit = true
	}
	if !haveLimit {
		return 0
	}
	return limit
}

// Cascade is the §4.8 compression pipeline. rendered is the fully
// substituted prompt text; snapshot/task are the raw context entries
// (pre-substitution) so the cascade can shrink them and re-render.
// snapshotMaxChars, shrinkFactor (0 disables the retry-path step), and
// effectiveLimit gate each stage; render is invoked after every mutation
// to re-check the total length.
type Cascade struct {
	EffectiveLimit   int
	SnapshotMaxChars int // 0 = unset
	ShrinkFactor     float64 // 0 = no retry-shrink requested
}

// Apply runs the cascade over ctx in place, stopping as soon as a
// re-render of tmpl against ctx fits EffectiveLimit (or every stage has
// been exhausted). It returns the final rendered text.
func (c Cascade) Apply(tmpl string, ctx Context) (string, error) {
	rendered, err := Render(tmpl, ctx)
	if err != nil {
		return "", err
	}
	if c.EffectiveLimit <= 0 || len(rendered) <= c.EffectiveLimit {
		return rendered, nil
	}

	// Stage 1: replace every "*_output" entry with a summary.
	for key, value := range ctx {
		if strings.HasSuffix(key, "_output") {
			ctx[key] = Summarize(value, minFloorChars)
		}
	}
	rendered, err = Render(tmpl, ctx)
	if err != nil {
		return "", err
	}
	if len(rendered) <= c.EffectiveLimit {
		return rendered, nil
	}

	// Stage 2: summarize snapshot down to snapshot_max_chars.
	if c.SnapshotMaxChars > 0 {
		if snap, ok := ctx["snapshot"]; ok {
			ctx["snapshot"] = Summarize(snap, c.SnapshotMaxChars)
		}
		rendered, err = Render(tmpl, ctx)
		if err != nil {
			return "", err
		}
		if len(rendered) <= c.EffectiveLimit {
			return rendered, nil
		}
	}

	// Stage 3: retry-path shrink factor on snapshot.
	if c.ShrinkFactor > 0 && c.ShrinkFactor < 1 {
		if snap, ok := ctx["snapshot"]; ok {
			target := int(float64(c.EffectiveLimit) * c.ShrinkFactor)
			if target < minFloorChars {
				target = minFloorChars
			}
			ctx["snapshot"] = Summarize(snap, target)
		}
		rendered, err = Render(tmpl, ctx)
		if err != nil {
			return "", err
		}
		if len(rendered) <= c.EffectiveLimit {
			return rendered, nil
		}
	}

	// Stage 4: hard-truncate snapshot then task, preserving a 256-char floor.
	if snap, ok := ctx["snapshot"]; ok {
		ctx["snapshot"] = hardTruncate(snap, minFloorChars)
	}
	rendered, err = Render(tmpl, ctx)
	if err != nil {
		return "", err
	}
	if len(rendered) <= c.EffectiveLimit {
		return rendered, nil
	}
	if task, ok := ctx["task"]; ok {
		ctx["task"] = hardTruncate(task, minFloorChars)
	}
	return Render(tmpl, ctx)
}

func hardTruncate(text string, floor int) string {
	if len(text) <= floor {
		return text
	}
	return text[:floor]
}
