/*
Package config loads envtrace settings from defaults, an optional project
config file and ENVTRACE_ environment variables, in increasing precedence.

Config files are looked up at the scan root as .envtrace.yaml, .envtrace.yml,
.envtrace.toml or .envtrace.json unless one is given explicitly.

Environment Variables:

	ENVTRACE_FILTERUPPERCASE       Drop names that are not upper snake-case
	ENVTRACE_EXCLUDEPATTERNS       Comma-separated exclude patterns (replaces defaults)
	ENVTRACE_EXTRAEXCLUDEPATTERNS  Comma-separated patterns appended to the defaults
	ENVTRACE_CUSTOMRULESPATH       YAML or TOML file of custom patterns
	ENVTRACE_SEMGREP_BINARY        semgrep executable
	ENVTRACE_SEMGREP_TIMEOUT       semgrep run timeout, e.g. 5m
	ENVTRACE_SEMGREP_REQUIRED      Fail instead of warn when semgrep is missing
	ENVTRACE_WORKERS               Parallel file parsers
	ENVTRACE_DISABLECODESCAN       Skip the semgrep pass
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/railwayapp/envtrace/internal/codepattern"
	"github.com/railwayapp/envtrace/internal/discovery"
	"github.com/railwayapp/envtrace/internal/filesystems"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "ENVTRACE"
	defaultTimeout = 5 * time.Minute
)

// Project config file names, in lookup order
var configFileNames = []string{".envtrace.yaml", ".envtrace.yml", ".envtrace.toml", ".envtrace.json"}

type Semgrep struct {
	Binary   string
	Timeout  time.Duration
	Required bool
}

// Config holds all configuration parameters for a scan
type Config struct {
	// FilterUppercase drops names that are not upper snake-case
	FilterUppercase bool

	// ExcludePatterns replace the default directory excludes when set
	ExcludePatterns []string

	// ExtraExcludePatterns are appended to ExcludePatterns
	ExtraExcludePatterns []string

	// CustomRulesPath points at a YAML or TOML file of custom patterns,
	// relative to the scan root unless absolute
	CustomRulesPath string

	// CustomPatterns holds inline patterns plus those loaded from CustomRulesPath
	CustomPatterns []codepattern.CustomPattern

	Semgrep Semgrep

	// Workers bounds parallel file parsing
	Workers int

	// DisableCodeScan skips the semgrep pass entirely
	DisableCodeScan bool

	// ConfigFileUsed is the config file that was read, if any
	ConfigFileUsed string
}

// LoadOptions tells Load where to look
type LoadOptions struct {
	// Root is the scan root searched for a project config file
	Root string

	// ConfigFile overrides the config file lookup
	ConfigFile string

	// EnvFile is a dotenv file loaded into the process environment before
	// ENVTRACE_ variables are read. Existing variables win.
	EnvFile string
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		FilterUppercase: true,
		ExcludePatterns: append([]string(nil), discovery.DefaultExcludePatterns...),
		Semgrep: Semgrep{
			Binary:  "semgrep",
			Timeout: defaultTimeout,
		},
		Workers: runtime.NumCPU(),
	}
}

// Load reads configuration and validates it
func Load(opts LoadOptions) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v, err := newViper(opts)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		FilterUppercase:      v.GetBool("filterUppercase"),
		ExcludePatterns:      stringList(v, "excludePatterns"),
		ExtraExcludePatterns: stringList(v, "extraExcludePatterns"),
		CustomRulesPath:      v.GetString("customRulesPath"),
		Semgrep: Semgrep{
			Binary:   v.GetString("semgrep.binary"),
			Timeout:  v.GetDuration("semgrep.timeout"),
			Required: v.GetBool("semgrep.required"),
		},
		Workers:         v.GetInt("workers"),
		DisableCodeScan: v.GetBool("disableCodeScan"),
		ConfigFileUsed:  v.ConfigFileUsed(),
	}

	// Handle special case for workers=0
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if err := v.UnmarshalKey("customPatterns", &cfg.CustomPatterns); err != nil {
		return Config{}, fmt.Errorf("invalid customPatterns: %w", err)
	}

	if cfg.CustomRulesPath != "" {
		rulesPath := cfg.CustomRulesPath
		if !filepath.IsAbs(rulesPath) && opts.Root != "" {
			rulesPath = filepath.Join(opts.Root, rulesPath)
		}
		patterns, err := LoadCustomPatterns(rulesPath)
		if err != nil {
			return Config{}, err
		}
		cfg.CustomPatterns = append(cfg.CustomPatterns, patterns...)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper(opts LoadOptions) (*viper.Viper, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("filterUppercase", defaults.FilterUppercase)
	v.SetDefault("excludePatterns", defaults.ExcludePatterns)
	v.SetDefault("extraExcludePatterns", []string{})
	v.SetDefault("customRulesPath", "")
	v.SetDefault("semgrep.binary", defaults.Semgrep.Binary)
	v.SetDefault("semgrep.timeout", defaults.Semgrep.Timeout)
	v.SetDefault("semgrep.required", false)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("disableCodeScan", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case opts.ConfigFile != "":
		v.SetConfigFile(opts.ConfigFile)
	case opts.Root != "":
		found, err := filesystems.FindFile(filesystems.NewLocalFS(), opts.Root, configFileNames...)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to look for config in %s: %w", opts.Root, err)
		}
		if found == "" {
			return v, nil
		}
		v.SetConfigFile(found)
	default:
		return v, nil
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

// stringList reads a list setting; values coming from the environment are
// comma-separated
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}

	list := make([]string, 0, len(raw))
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

// Excludes returns the effective exclude patterns
func (c Config) Excludes() []string {
	return discovery.MergeExcludes(c.ExcludePatterns, c.ExtraExcludePatterns...)
}

// Validate checks the configuration for errors
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Semgrep.Timeout <= 0 {
		return fmt.Errorf("semgrep.timeout must be positive, got %s", c.Semgrep.Timeout)
	}
	if strings.TrimSpace(c.Semgrep.Binary) == "" && !c.DisableCodeScan {
		return fmt.Errorf("semgrep.binary must not be empty")
	}
	for _, p := range c.CustomPatterns {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid custom pattern: %w", err)
		}
	}
	return nil
}
