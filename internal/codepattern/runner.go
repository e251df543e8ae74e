package codepattern

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Request is one invocation of the tool over a directory tree
type Request struct {
	RulesPath string
	Root      string
	Excludes  []string
}

// Output is the subset of the tool's JSON report envtrace consumes
type Output struct {
	Results []Finding   `json:"results"`
	Errors  []ToolError `json:"errors"`
}

type Finding struct {
	CheckID string   `json:"check_id"`
	Path    string   `json:"path"`
	Start   Position `json:"start"`
	Extra   struct {
		Message string `json:"message"`
	} `json:"extra"`
}

type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// ToolError is a diagnostic the tool reported alongside its results
type ToolError struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

func (e ToolError) String() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Level != "" {
		msg = fmt.Sprintf("[%s] %s", e.Level, msg)
	}
	return msg
}

// Runner executes the static-analysis tool
type Runner interface {
	// Available returns ErrToolNotInstalled when the tool cannot be run
	Available() error

	Run(ctx context.Context, req Request) (*Output, error)
}

// SemgrepRunner runs the semgrep CLI as a subprocess
type SemgrepRunner struct {
	binary  string
	timeout time.Duration
}

func NewSemgrepRunner(binary string, timeout time.Duration) *SemgrepRunner {
	if binary == "" {
		binary = "semgrep"
	}
	return &SemgrepRunner{binary: binary, timeout: timeout}
}

func (r *SemgrepRunner) Available() error {
	if _, err := exec.LookPath(r.binary); err != nil {
		return fmt.Errorf("%w: %s", ErrToolNotInstalled, r.binary)
	}
	return nil
}

func (r *SemgrepRunner) Run(ctx context.Context, req Request) (*Output, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, r.args(req)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("semgrep timed out after %s", r.timeout)
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, fmt.Errorf("failed to run %s: %w", r.binary, runErr)
	}

	// semgrep exits non-zero on partial failures but still writes a report
	var output Output
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		if runErr != nil {
			err = fmt.Errorf("%v: %w", runErr, err)
		}
		return nil, &ToolOutputError{Stderr: stderr.String(), Err: err}
	}

	// Failures outside the report only show up on stderr
	if msg := strings.TrimSpace(stderr.String()); runErr != nil && msg != "" {
		output.Errors = append(output.Errors, ToolError{
			Level:   "error",
			Message: fmt.Sprintf("%v: %s", runErr, msg),
		})
	}
	return &output, nil
}

func (r *SemgrepRunner) args(req Request) []string {
	args := []string{
		"--config", req.RulesPath,
		"--json",
		"--quiet",
		"--metrics=off",
	}
	for _, exclude := range req.Excludes {
		args = append(args, "--exclude", exclude)
	}
	return append(args, req.Root)
}
