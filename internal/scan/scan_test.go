package scan

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/railwayapp/envtrace/internal/codepattern"
	"github.com/railwayapp/envtrace/internal/environment/types"
	"github.com/railwayapp/envtrace/internal/filesystems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const composeFile = `services:
  web:
    image: web
    environment:
      - PORT=8080
`

type fakeRunner struct {
	unavailable error
	output      *codepattern.Output
	err         error
	called      bool
}

func (f *fakeRunner) Available() error {
	return f.unavailable
}

func (f *fakeRunner) Run(ctx context.Context, req codepattern.Request) (*codepattern.Output, error) {
	f.called = true
	if _, err := os.Stat(req.RulesPath); err != nil {
		return nil, err
	}
	return f.output, f.err
}

func finding(checkID, path string, line int, message string) codepattern.Finding {
	f := codepattern.Finding{CheckID: checkID, Path: path, Start: codepattern.Position{Line: line}}
	f.Extra.Message = message
	return f
}

// failingFS fails reads of selected files
type failingFS struct {
	*filesystems.MemoryFS
	fail map[string]bool
}

func (f *failingFS) ReadFile(name string) ([]byte, error) {
	if f.fail[name] {
		return nil, errors.New("permission denied")
	}
	return f.MemoryFS.ReadFile(name)
}

func newRepo() *filesystems.MemoryFS {
	fs := filesystems.NewMemoryFS()
	fs.AddFile("/repo/.env", []byte("PORT=3000\napp_name=demo\n"))
	fs.AddFile("/repo/docker-compose.yml", []byte(composeFile))
	fs.AddFile("/repo/src/index.js", []byte("const key = process.env.API_KEY || \"dev\";\n"))
	return fs
}

func codeRunner() *fakeRunner {
	return &fakeRunner{output: &codepattern.Output{
		Results: []codepattern.Finding{
			// The same read matched by the plain and the default rule
			finding("rules.js-process-env", "src/index.js", 1, "API_KEY"),
			finding("rules.js-process-env-default", "src/index.js", 1, `API_KEY|||"dev"`),
		},
	}}
}

func newScanner(fs filesystems.FileSystem, runner codepattern.Runner, opts Options) *Scanner {
	var code CodeScanner
	if runner != nil {
		code = codepattern.NewAdapter(runner, codepattern.Options{FilterUppercase: opts.FilterUppercase}, nil)
	}
	return New(fs, code, opts, nil)
}

type row struct {
	name  string
	file  string
	line  int
	value string
}

func rows(occs []types.Occurrence) []row {
	out := make([]row, 0, len(occs))
	for _, occ := range occs {
		out = append(out, row{name: occ.Name, file: occ.File, line: occ.Line, value: occ.ValueString()})
	}
	return out
}

func TestScanMergesAllSources(t *testing.T) {
	runner := codeRunner()
	scanner := newScanner(newRepo(), runner, Options{FilterUppercase: true, Workers: 2})

	result, err := scanner.Scan(context.Background(), "/repo")
	require.NoError(t, err)
	assert.True(t, runner.called)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "/repo", result.Path)

	assert.Equal(t, []row{
		{name: "PORT", file: "/repo/.env", line: 1, value: "3000"},
		{name: "PORT", file: "/repo/docker-compose.yml", line: 5, value: "8080"},
		{name: "API_KEY", file: "/repo/src/index.js", line: 1, value: "dev"},
	}, rows(result.EnvVars))

	apiKey := result.EnvVars[2]
	require.NotNil(t, apiKey.ValueSource)
	assert.Equal(t, types.SourceCodeDefault, *apiKey.ValueSource)
	assert.True(t, apiKey.IsDefault)

	for _, occ := range result.EnvVars {
		assert.True(t, occ.Valid(), occ.Name)
	}
}

func TestScanKeepsLowercaseWithoutFilter(t *testing.T) {
	scanner := newScanner(newRepo(), nil, Options{})

	result, err := scanner.Scan(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, []string{"PORT", "app_name"}, result.Names())
}

func TestScanMissingRoot(t *testing.T) {
	scanner := newScanner(newRepo(), nil, Options{})

	_, err := scanner.Scan(context.Background(), "/nope")
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestScanToolMissingIsWarning(t *testing.T) {
	runner := &fakeRunner{unavailable: codepattern.ErrToolNotInstalled}
	scanner := newScanner(newRepo(), runner, Options{FilterUppercase: true})

	result, err := scanner.Scan(context.Background(), "/repo")
	require.NoError(t, err)
	assert.False(t, runner.called)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "semgrep is not installed")
	assert.Equal(t, []string{"PORT"}, result.Names())
}

func TestScanToolMissingWhenRequired(t *testing.T) {
	runner := &fakeRunner{unavailable: codepattern.ErrToolNotInstalled}
	scanner := newScanner(newRepo(), runner, Options{RequireCodeScan: true})

	_, err := scanner.Scan(context.Background(), "/repo")
	assert.ErrorIs(t, err, codepattern.ErrToolNotInstalled)
}

func TestScanToolFailureKeepsParserResults(t *testing.T) {
	runner := &fakeRunner{err: &codepattern.ToolOutputError{Stderr: "boom", Err: errors.New("bad json")}}
	scanner := newScanner(newRepo(), runner, Options{FilterUppercase: true})

	result, err := scanner.Scan(context.Background(), "/repo")
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "source code was not scanned")
	assert.Len(t, result.EnvVars, 2)
}

func TestScanToolFailureWhenRequired(t *testing.T) {
	toolErr := &codepattern.ToolOutputError{Stderr: "boom", Err: errors.New("bad json")}
	scanner := newScanner(newRepo(), &fakeRunner{err: toolErr}, Options{RequireCodeScan: true})

	_, err := scanner.Scan(context.Background(), "/repo")
	var target *codepattern.ToolOutputError
	assert.ErrorAs(t, err, &target)
}

func TestScanDisableCodeScan(t *testing.T) {
	runner := codeRunner()
	scanner := newScanner(newRepo(), runner, Options{DisableCodeScan: true})

	result, err := scanner.Scan(context.Background(), "/repo")
	require.NoError(t, err)
	assert.False(t, runner.called)
	assert.NotContains(t, result.Names(), "API_KEY")
}

func TestScanRecordsBrokenFiles(t *testing.T) {
	fs := newRepo()
	fs.AddFile("/repo/services/api/docker-compose.yml", []byte("services: [\n"))
	scanner := newScanner(fs, nil, Options{})

	result, err := scanner.Scan(context.Background(), "/repo")
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "/repo/services/api/docker-compose.yml")
	assert.Len(t, result.EnvVars, 3)
}

func TestScanRecordsMalformedDotEnv(t *testing.T) {
	fs := newRepo()
	fs.AddFile("/repo/config/.env.local", []byte("GOOD=1\njust some words\n"))
	scanner := newScanner(fs, nil, Options{})

	result, err := scanner.Scan(context.Background(), "/repo")
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "/repo/config/.env.local")
	for _, occ := range result.EnvVars {
		assert.NotEqual(t, "GOOD", occ.Name)
	}
}

func TestScanUnreadableFiles(t *testing.T) {
	mem := newRepo()
	mem.AddFile("/repo/k8s/deployment.yaml", []byte("apiVersion: apps/v1\nkind: Deployment\n"))
	fs := &failingFS{MemoryFS: mem, fail: map[string]bool{
		"/repo/k8s/deployment.yaml": true,
		"/repo/.env":                true,
	}}
	scanner := newScanner(fs, nil, Options{})

	result, err := scanner.Scan(context.Background(), "/repo")
	require.NoError(t, err)

	// Only the dotenv read failure is reported
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "failed to read /repo/.env")
	assert.Equal(t, []string{"PORT"}, result.Names())
}

func TestScanCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(newRepo(), nil, Options{}).Scan(ctx, "/repo")
	assert.ErrorIs(t, err, context.Canceled)
}
