package envtrace

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/railwayapp/envtrace/internal/config"
	"github.com/railwayapp/envtrace/internal/filesystems"
	"github.com/railwayapp/envtrace/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	envFile   string
	verbosity int
)

var rootCmd = &cobra.Command{
	Use:   "envtrace [path]",
	Short: "Find the environment variables a codebase uses and where their values come from",
	Long: `envtrace walks a source tree and reports every environment variable it reads:
1. Discover - Find .env files, Dockerfiles, compose files, Kubernetes manifests and property files
2. Parse - Extract each variable with its configured or default value
3. Code - Run semgrep over source files for reads like os.Getenv and process.env
4. Reconcile - Merge the results into one occurrence per name, file and line

Running envtrace without a subcommand is the same as "envtrace scan".`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScanCommand,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .envtrace.yaml in the scan root)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with ENVTRACE_ settings to load first")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v debug, -vv trace)")

	addOutputFlags(rootCmd)
	addScanFlags(rootCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() logger.Logger {
	return logger.New(logger.Config{Verbosity: verbosity})
}

// fail reports a fatal error and exits
func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// sourcePath returns the path argument, "." when missing. A file argument
// scans its parent directory.
func sourcePath(args []string) string {
	if len(args) == 0 {
		return "."
	}
	path := args[0]
	if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
		path = filepath.Dir(path)
	}
	return path
}

func loadConfig(root string) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		Root:       root,
		ConfigFile: cfgFile,
		EnvFile:    envFile,
	})
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolveRoot(path string) (string, error) {
	return filesystems.ResolveRoot(path)
}

// writeOutput writes data to the --output file, or stdout when unset
func writeOutput(stdout io.Writer, data []byte) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		return nil
	}
	_, err := stdout.Write(data)
	return err
}
