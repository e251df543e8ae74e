package filesystems

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// GitWorktree is a transient checkout of a git ref, created with
// `git worktree add --detach`. It is owned by the caller that created it and
// must be released with Cleanup.
type GitWorktree struct {
	*LocalFS

	repoDir string
	ref     string
	path    string

	once       sync.Once
	cleanupErr error
}

// NewGitWorktree checks out ref from the repository containing repoDir into a
// fresh temporary directory.
func NewGitWorktree(ctx context.Context, repoDir, ref string) (*GitWorktree, error) {
	if ref == "" {
		return nil, fmt.Errorf("git ref must not be empty")
	}

	top, err := runGit(ctx, repoDir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%s is not inside a git repository: %w", repoDir, err)
	}

	tempDir, err := os.MkdirTemp("", "envtrace-worktree-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	wt := &GitWorktree{
		LocalFS: NewLocalFS(),
		repoDir: strings.TrimSpace(top),
		ref:     ref,
		path:    tempDir,
	}

	if _, err := runGit(ctx, wt.repoDir, "worktree", "add", "--detach", "--force", tempDir, ref); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to check out %s: %w", ref, err)
	}

	return wt, nil
}

// Path returns the worktree root
func (w *GitWorktree) Path() string {
	return w.path
}

// Ref returns the checked out ref
func (w *GitWorktree) Ref() string {
	return w.ref
}

// Cleanup removes the worktree registration and its directory. Safe to call
// more than once.
func (w *GitWorktree) Cleanup() error {
	w.once.Do(func() {
		_, err := runGit(context.Background(), w.repoDir, "worktree", "remove", "--force", w.path)
		if rmErr := os.RemoveAll(w.path); rmErr != nil && err == nil {
			err = rmErr
		}
		if err != nil {
			// The directory is gone either way; drop the stale registration.
			_, _ = runGit(context.Background(), w.repoDir, "worktree", "prune")
		}
		w.cleanupErr = err
	})
	return w.cleanupErr
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		return "", fmt.Errorf("git %s: %s: %w", args[0], msg, err)
	}
	return stdout.String(), nil
}
