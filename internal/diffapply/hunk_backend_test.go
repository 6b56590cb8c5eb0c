package diffapply

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, filepath.Dir(rel)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte(content), 0o644))
}

func TestHunkBackend_AppliesSimpleModification(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "foo.go", "line1\nline2\nline3\n")

	diff := "diff --git a/foo.go b/foo.go\n" +
		"--- a/foo.go\n" +
		"+++ b/foo.go\n" +
		"@@ -1,3 +1,3 @@\n" +
		" line1\n" +
		"-line2\n" +
		"+line2-modified\n" +
		" line3\n"

	b := NewHunkBackend()
	require.NoError(t, b.Check(context.Background(), dir, diff))
	require.NoError(t, b.Apply(context.Background(), dir, diff))

	got, err := os.ReadFile(filepath.Join(dir, "foo.go"))
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2-modified\nline3\n", string(got))
}

func TestHunkBackend_ContextMismatchFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "foo.go", "line1\nDIFFERENT\nline3\n")

	diff := "diff --git a/foo.go b/foo.go\n" +
		"--- a/foo.go\n" +
		"+++ b/foo.go\n" +
		"@@ -1,3 +1,3 @@\n" +
		" line1\n" +
		"-line2\n" +
		"+line2-modified\n" +
		" line3\n"

	b := NewHunkBackend()
	err := b.Check(context.Background(), dir, diff)
	assert.Error(t, err)
}

func TestHunkBackend_CreatesNewFile(t *testing.T) {
	dir := t.TempDir()

	diff := "diff --git a/new.go b/new.go\n" +
		"--- /dev/null\n" +
		"+++ b/new.go\n" +
		"@@ -0,0 +1,2 @@\n" +
		"+hello\n" +
		"+world\n"

	b := NewHunkBackend()
	require.NoError(t, b.Apply(context.Background(), dir, diff))

	got, err := os.ReadFile(filepath.Join(dir, "new.go"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", string(got))
}

func TestHunkBackend_DeletesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gone.go", "bye\n")

	diff := "diff --git a/gone.go b/gone.go\n" +
		"--- a/gone.go\n" +
		"+++ /dev/null\n" +
		"@@ -1,1 +0,0 @@\n" +
		"-bye\n"

	b := NewHunkBackend()
	require.NoError(t, b.Apply(context.Background(), dir, diff))

	_, err := os.Stat(filepath.Join(dir, "gone.go"))
	assert.True(t, os.IsNotExist(err))
}
