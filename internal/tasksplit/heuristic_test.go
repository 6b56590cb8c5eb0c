package tasksplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanHeuristic_NoSplitNeededKeepsOneChunkPerBlock(t *testing.T) {
	blocks := []block{{title: "A", body: "# A\nshort"}, {title: "B", body: "# B\nshort"}}
	chunks := planHeuristic(blocks, 1000, 0)
	assert.Len(t, chunks, 2)
}

func TestSplitOversized_UsesH2HeadingsFirst(t *testing.T) {
	text := "# Big\n## One\n" + strings.Repeat("a", 30) + "\n## Two\n" + strings.Repeat("b", 30) + "\n"
	pieces := splitOversized(text, 40)
	assert.Greater(t, len(pieces), 1)
	assert.Contains(t, pieces[0], "## One")
}

func TestSplitOversized_FallsBackToParagraphPacking(t *testing.T) {
	text := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30) + "\n\n" + strings.Repeat("c", 30)
	pieces := splitOversized(text, 40)
	assert.Greater(t, len(pieces), 1)
}

func TestSplitOversized_UnderLimitReturnsUnchanged(t *testing.T) {
	pieces := splitOversized("small", 1000)
	assert.Equal(t, []string{"small"}, pieces)
}

func TestPackParagraphs_NeverSplitsASingleOversizedParagraph(t *testing.T) {
	huge := strings.Repeat("x", 500)
	pieces := packParagraphs(huge, 100)
	assert.Equal(t, []string{huge}, pieces)
}

func TestMergeUndersized_FoldsShortChunkIntoSuccessor(t *testing.T) {
	chunks := []string{"tiny", "this is a longer chunk of text", "another longer chunk of text"}
	merged := mergeUndersized(chunks, 20)
	assert.Len(t, merged, 2)
	assert.Contains(t, merged[0], "tiny")
}

func TestMergeUndersized_DanglingLastShortChunkIsKept(t *testing.T) {
	chunks := []string{"this is a longer chunk of text", "tiny"}
	merged := mergeUndersized(chunks, 20)
	assert.Equal(t, chunks, merged)
}

func TestMergeUndersized_ZeroMinCharsIsNoop(t *testing.T) {
	chunks := []string{"a", "b", "c"}
	assert.Equal(t, chunks, mergeUndersized(chunks, 0))
}
