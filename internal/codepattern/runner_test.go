package codepattern

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool writes an executable shell script standing in for semgrep
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "semgrep")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestSemgrepRunnerRun(t *testing.T) {
	tool := fakeTool(t, `printf '%s\n' "$@" > "$(dirname "$0")/args.txt"
cat <<'JSON'
{"results":[{"check_id":"go-os-getenv","path":"/repo/main.go","start":{"line":3,"col":2},"extra":{"message":"PORT"}}],"errors":[{"level":"warn","message":"timeout","path":"/repo/big.go"}]}
JSON
`)

	runner := NewSemgrepRunner(tool, time.Minute)
	require.NoError(t, runner.Available())

	output, err := runner.Run(context.Background(), Request{
		RulesPath: "/tmp/rules.yaml",
		Root:      "/repo",
		Excludes:  []string{"node_modules", "dist"},
	})
	require.NoError(t, err)
	require.Len(t, output.Results, 1)
	assert.Equal(t, "go-os-getenv", output.Results[0].CheckID)
	assert.Equal(t, 3, output.Results[0].Start.Line)
	assert.Equal(t, "PORT", output.Results[0].Extra.Message)
	require.Len(t, output.Errors, 1)
	assert.Equal(t, "[warn] /repo/big.go: timeout", output.Errors[0].String())

	args, err := os.ReadFile(filepath.Join(filepath.Dir(tool), "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--config", "/tmp/rules.yaml",
		"--json", "--quiet", "--metrics=off",
		"--exclude", "node_modules",
		"--exclude", "dist",
		"/repo",
	}, strings.Split(strings.TrimSpace(string(args)), "\n"))
}

func TestSemgrepRunnerKeepsReportOnNonZeroExit(t *testing.T) {
	tool := fakeTool(t, `echo '{"results":[],"errors":[{"level":"error","message":"parse failure"}]}'
exit 2
`)

	output, err := NewSemgrepRunner(tool, time.Minute).Run(context.Background(), Request{RulesPath: "r.yaml", Root: "/repo"})
	require.NoError(t, err)
	require.Len(t, output.Errors, 1)
	assert.Equal(t, "parse failure", output.Errors[0].Message)
}

func TestSemgrepRunnerReportsStderrOnNonZeroExit(t *testing.T) {
	tool := fakeTool(t, `echo '{"results":[{"check_id":"go-os-getenv","path":"/repo/main.go","start":{"line":1,"col":1},"extra":{"message":"PORT"}}],"errors":[]}'
echo "  2 files could not be scanned  " >&2
exit 1
`)

	output, err := NewSemgrepRunner(tool, time.Minute).Run(context.Background(), Request{RulesPath: "r.yaml", Root: "/repo"})
	require.NoError(t, err)
	require.Len(t, output.Results, 1)
	require.Len(t, output.Errors, 1)
	assert.Equal(t, "[error] exit status 1: 2 files could not be scanned", output.Errors[0].String())
}

func TestSemgrepRunnerIgnoresStderrOnSuccess(t *testing.T) {
	tool := fakeTool(t, `echo '{"results":[],"errors":[]}'
echo "progress output" >&2
`)

	output, err := NewSemgrepRunner(tool, time.Minute).Run(context.Background(), Request{RulesPath: "r.yaml", Root: "/repo"})
	require.NoError(t, err)
	assert.Empty(t, output.Errors)
}

func TestAdapterSurfacesToolStderr(t *testing.T) {
	tool := fakeTool(t, `echo '{"results":[],"errors":[]}'
echo "rule go-os-getenv failed" >&2
exit 2
`)

	result, err := NewAdapter(NewSemgrepRunner(tool, time.Minute), Options{}, nil).Scan(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, []string{"semgrep: [error] exit status 2: rule go-os-getenv failed"}, result.Warnings)
}

func TestSemgrepRunnerMalformedOutput(t *testing.T) {
	tool := fakeTool(t, `echo "not json"
echo "invalid rule schema" >&2
exit 7
`)

	_, err := NewSemgrepRunner(tool, time.Minute).Run(context.Background(), Request{RulesPath: "r.yaml", Root: "/repo"})
	var outputErr *ToolOutputError
	require.ErrorAs(t, err, &outputErr)
	assert.Contains(t, outputErr.Stderr, "invalid rule schema")
	assert.Contains(t, err.Error(), "invalid rule schema")
}

func TestSemgrepRunnerTimeout(t *testing.T) {
	tool := fakeTool(t, "exec sleep 5\n")

	_, err := NewSemgrepRunner(tool, 100*time.Millisecond).Run(context.Background(), Request{RulesPath: "r.yaml", Root: "/repo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestSemgrepRunnerNotInstalled(t *testing.T) {
	runner := NewSemgrepRunner(filepath.Join(t.TempDir(), "missing-semgrep"), time.Minute)
	assert.ErrorIs(t, runner.Available(), ErrToolNotInstalled)
}
