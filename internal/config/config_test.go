package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/railwayapp/envtrace/internal/codepattern"
	"github.com/railwayapp/envtrace/internal/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Root: t.TempDir()})
	require.NoError(t, err)

	assert.True(t, cfg.FilterUppercase)
	assert.Equal(t, discovery.DefaultExcludePatterns, cfg.ExcludePatterns)
	assert.Empty(t, cfg.ExtraExcludePatterns)
	assert.Equal(t, "semgrep", cfg.Semgrep.Binary)
	assert.Equal(t, 5*time.Minute, cfg.Semgrep.Timeout)
	assert.False(t, cfg.Semgrep.Required)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Empty(t, cfg.ConfigFileUsed)
}

func TestLoadProjectConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".envtrace.yaml", `filterUppercase: false
extraExcludePatterns:
  - generated
semgrep:
  timeout: 30s
  required: true
workers: 2
customPatterns:
  - id: settings
    pattern: settings.$VAR
    languages: [python]
`)

	cfg, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)

	assert.False(t, cfg.FilterUppercase)
	assert.Equal(t, []string{"generated"}, cfg.ExtraExcludePatterns)
	assert.Contains(t, cfg.Excludes(), "node_modules")
	assert.Contains(t, cfg.Excludes(), "generated")
	assert.Equal(t, 30*time.Second, cfg.Semgrep.Timeout)
	assert.True(t, cfg.Semgrep.Required)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []codepattern.CustomPattern{{ID: "settings", Pattern: "settings.$VAR", Languages: []string{"python"}}}, cfg.CustomPatterns)
	assert.Equal(t, filepath.Join(root, ".envtrace.yaml"), cfg.ConfigFileUsed)
}

func TestLoadTOMLProjectConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".envtrace.toml", `excludePatterns = ["only_this"]
disableCodeScan = true
`)

	cfg, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"only_this"}, cfg.Excludes())
	assert.True(t, cfg.DisableCodeScan)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".envtrace.yaml", "workers: 2\n")

	t.Setenv("ENVTRACE_WORKERS", "7")
	t.Setenv("ENVTRACE_EXTRAEXCLUDEPATTERNS", "tmp, cache ,")
	t.Setenv("ENVTRACE_SEMGREP_TIMEOUT", "90s")

	cfg, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, []string{"tmp", "cache"}, cfg.ExtraExcludePatterns)
	assert.Equal(t, 90*time.Second, cfg.Semgrep.Timeout)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, "envtrace.env", "ENVTRACE_SEMGREP_BINARY=/opt/semgrep/bin/semgrep\n")
	t.Cleanup(func() { os.Unsetenv("ENVTRACE_SEMGREP_BINARY") })

	cfg, err := Load(LoadOptions{Root: dir, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "/opt/semgrep/bin/semgrep", cfg.Semgrep.Binary)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, err)
}

func TestLoadExplicitConfigMissing(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoadCustomRulesPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "rules.toml", `[[patterns]]
id = "config-get"
pattern = 'config.get("$VAR")'
languages = ["python"]
`)
	writeFile(t, root, ".envtrace.yaml", "customRulesPath: rules.toml\n")

	cfg, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	require.Len(t, cfg.CustomPatterns, 1)
	assert.Equal(t, "config-get", cfg.CustomPatterns[0].ID)
	assert.Equal(t, `config.get("$VAR")`, cfg.CustomPatterns[0].Pattern)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".envtrace.yaml", "workers: -1\n")

	_, err := Load(LoadOptions{Root: root})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	bad := Default()
	bad.Semgrep.Timeout = 0
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.CustomPatterns = []codepattern.CustomPattern{{ID: "x", Pattern: "p"}}
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.Semgrep.Binary = ""
	assert.Error(t, bad.Validate())
	bad.DisableCodeScan = true
	assert.NoError(t, bad.Validate())
}

func TestLoadCustomPatternsYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.yaml", `patterns:
  - id: feature-flag
    description: feature flags
    pattern: flags.get("$VAR")
    languages: [python, go]
`)

	patterns, err := LoadCustomPatterns(path)
	require.NoError(t, err)
	assert.Equal(t, []codepattern.CustomPattern{{
		ID:          "feature-flag",
		Description: "feature flags",
		Pattern:     `flags.get("$VAR")`,
		Languages:   []string{"python", "go"},
	}}, patterns)
}

func TestLoadCustomPatternsInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.yaml", "patterns:\n  - id: no-pattern\n    languages: [go]\n")
	_, err := LoadCustomPatterns(path)
	assert.Error(t, err)

	path = writeFile(t, t.TempDir(), "rules.yaml", "patterns: [broken\n")
	_, err = LoadCustomPatterns(path)
	assert.Error(t, err)
}
