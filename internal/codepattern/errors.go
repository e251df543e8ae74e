package codepattern

import (
	"errors"
	"fmt"
	"strings"
)

// ErrToolNotInstalled means the static-analysis binary could not be found
var ErrToolNotInstalled = errors.New("semgrep is not installed or not on PATH")

// ToolOutputError is returned when the tool's output cannot be decoded. It
// carries whatever the tool wrote to stderr.
type ToolOutputError struct {
	Stderr string
	Err    error
}

func (e *ToolOutputError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("failed to parse semgrep output: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse semgrep output: %v (stderr: %s)", e.Err, stderr)
}

func (e *ToolOutputError) Unwrap() error {
	return e.Err
}
