package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_UnderLimitReturnsUnchanged(t *testing.T) {
	assert.Equal(t, "short", Summarize("short", 100))
}

func TestSummarize_OverLimitKeepsHeadAndTail(t *testing.T) {
	text := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	got := Summarize(text, 20)

	assert.True(t, strings.HasPrefix(got, strings.Repeat("a", 10)))
	assert.True(t, strings.HasSuffix(got, strings.Repeat("b", 10)))
	assert.Contains(t, got, "\n...\n")
}

func TestEffectiveLimit_PicksSmallerOfTheTwoBudgets(t *testing.T) {
	chars := 1000
	tokens := 100
	got := EffectiveLimit(&chars, &tokens, 4) // 100*4 = 400 < 1000
	assert.Equal(t, 400, got)
}

func TestEffectiveLimit_OnlyCharsSet(t *testing.T) {
	chars := 500
	assert.Equal(t, 500, EffectiveLimit(&chars, nil, 4))
}

func TestEffectiveLimit_NeitherSetReturnsZero(t *testing.T) {
	assert.Equal(t, 0, EffectiveLimit(nil, nil, 4))
}

func TestCascade_NoOpWhenUnderBudget(t *testing.T) {
	c := Cascade{EffectiveLimit: 1000}
	ctx := Context{"task": "short task"}

	got, err := c.Apply("Task: {task}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "Task: short task", got)
}

func TestCascade_ReplacesOutputEntriesFirst(t *testing.T) {
	longOutput := strings.Repeat("x", 2000)
	c := Cascade{EffectiveLimit: 600}
	ctx := Context{"role_output": longOutput, "task": "t"}

	got, err := c.Apply("Output: {role_output} Task: {task}", ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 700) // allows for template scaffolding slack
}

func TestCascade_HardTruncatesSnapshotThenTaskAsLastResort(t *testing.T) {
	c := Cascade{EffectiveLimit: 400}
	ctx := Context{
		"snapshot": strings.Repeat("s", 5000),
		"task":     strings.Repeat("t", 5000),
	}

	_, err := c.Apply("{snapshot}{task}", ctx)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(ctx["snapshot"]), minFloorChars)
	assert.LessOrEqual(t, len(ctx["task"]), minFloorChars)
}
