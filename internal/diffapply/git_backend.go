package diffapply

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// GitBackend delegates diff application to the external git binary
// ("git apply --check" then "git apply"), with an optional 3-way fallback.
// Grounded on the teacher's internal/adapters/git/client.go exec-wrapping
// idiom (run/runWithOutput: exec.CommandContext with a resolved binary
// path, a bounded timeout, and stderr surfaced verbatim on failure).
type GitBackend struct {
	gitPath  string
	threeWay bool
	timeout  time.Duration
}

// NewGitBackend resolves the git binary on PATH once at construction, the
// same defensive pattern as the teacher's resolveGitBinaryPath (LookPath +
// Abs + EvalSymlinks), so a later PATH mutation cannot retarget it.
func NewGitBackend(_ string, threeWay bool) *GitBackend {
	path, err := exec.LookPath("git")
	if err != nil {
		path = "git"
	} else if abs, aerr := filepath.Abs(path); aerr == nil {
		path = abs
	}
	return &GitBackend{gitPath: path, threeWay: threeWay, timeout: 30 * time.Second}
}

func (g *GitBackend) Check(ctx context.Context, workdir, diffText string) error {
	args := []string{"apply", "--check"}
	if g.threeWay {
		args = append(args, "--3way")
	}
	_, err := g.run(ctx, workdir, diffText, args...)
	return err
}

func (g *GitBackend) Apply(ctx context.Context, workdir, diffText string) error {
	args := []string{"apply"}
	if g.threeWay {
		args = append(args, "--3way")
	}
	_, err := g.run(ctx, workdir, diffText, args...)
	return err
}

// run feeds diffText on stdin and surfaces any stderr on failure, mirroring
// the teacher's runWithOutput pattern (bounded context timeout, stdout and
// stderr captured separately).
func (g *GitBackend) run(ctx context.Context, workdir, diffText string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.gitPath, args...)
	cmd.Dir = workdir
	cmd.Stdin = strings.NewReader(diffText)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", core.ErrTimeout("git apply timed out")
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Available reports whether git is resolvable on PATH and workdir looks
// like a version-controlled tree, per spec.md §4.4's backend-selection
// gate ("if apply_cfg.use_git and the workspace looks like a
// version-controlled tree with the backend available").
func Available(workdir string) bool {
	if _, err := exec.LookPath("git"); err != nil {
		return false
	}
	cmd := exec.Command("git", "-C", workdir, "rev-parse", "--git-dir")
	return cmd.Run() == nil
}
