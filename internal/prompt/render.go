// Package prompt implements the Prompt Builder (spec.md §4.8): formal
// `{placeholder}` substitution against a context map, plus the
// compression cascade applied when the rendered prompt exceeds budget.
// Unlike the teacher's internal/service/prompt.go (which renders
// `text/template`-based report templates via `//go:embed`), placeholder
// substitution here is hand-rolled rather than delegated to
// text/template.Execute: text/template silently emits "<no value>" for a
// missing map key, which would violate the spec's hard-error-on-missing-
// key contract (error_prompt_missing_key). text/template itself is still
// a teacher dependency worth keeping — see internal/diagnostics and the
// cmd-level report rendering, which reuse it for non-prompt output.
package prompt

import (
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// Context is the named-value map a prompt template is rendered against.
type Context map[string]string

// Render performs formal substitution of every `{name}` placeholder in
// template against ctx. A placeholder with no matching context entry is a
// hard error naming the offending key (spec.md §4.8).
func Render(tmpl string, ctx Context) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(tmpl) {
		open := strings.IndexByte(tmpl[i:], '{')
		if open == -1 {
			b.WriteString(tmpl[i:])
			break
		}
		open += i
		b.WriteString(tmpl[i:open])

		close := strings.IndexByte(tmpl[open:], '}')
		if close == -1 {
			b.WriteString(tmpl[open:])
			break
		}
		close += open

		key := tmpl[open+1 : close]
		value, ok := ctx[key]
		if !ok {
			return "", core.ErrValidation(core.CodeMissingPromptKey, "missing prompt placeholder: "+key)
		}
		b.WriteString(value)
		i = close + 1
	}
	return b.String(), nil
}
