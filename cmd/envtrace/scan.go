package envtrace

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/railwayapp/envtrace/internal/codepattern"
	"github.com/railwayapp/envtrace/internal/config"
	"github.com/railwayapp/envtrace/internal/export"
	"github.com/railwayapp/envtrace/internal/filesystems"
	"github.com/railwayapp/envtrace/internal/logger"
	"github.com/railwayapp/envtrace/internal/scan"
	"github.com/railwayapp/envtrace/internal/schema"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	outputPath   string
	noCode       bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a source tree for environment variables",
	Args:  cobra.MaximumNArgs(1),
	Run:   runScanCommand,
}

func init() {
	addOutputFlags(scanCmd)
	addScanFlags(scanCmd)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json or text)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write output to a file instead of stdout")
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noCode, "no-code", false, "skip the semgrep pass over source code")
}

func runScanCommand(cmd *cobra.Command, args []string) {
	if err := runScan(cmd.Context(), sourcePath(args), cmd.OutOrStdout()); err != nil {
		fail("Scan failed: %v", err)
	}
}

func runScan(ctx context.Context, path string, stdout io.Writer) error {
	fs, root, err := filesystems.NewFileSystem(path)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	log := newLogger()
	if cfg.ConfigFileUsed != "" {
		log.Debug(fmt.Sprintf("using config file %s", cfg.ConfigFileUsed))
	}

	result, err := scanTree(ctx, fs, root, cfg, log)
	if err != nil {
		return err
	}

	exporter, err := export.New(outputFormat, colorize())
	if err != nil {
		return err
	}
	data, err := exporter.ExportScan(result)
	if err != nil {
		return fmt.Errorf("%s export failed: %w", exporter.Name(), err)
	}
	return writeOutput(stdout, data)
}

// scanTree runs one scan of root with cfg
func scanTree(ctx context.Context, fs filesystems.FileSystem, root string, cfg config.Config, log logger.Logger) (*schema.ScanResult, error) {
	disableCode := cfg.DisableCodeScan || noCode

	var code scan.CodeScanner
	if !disableCode {
		code = newAdapter(cfg, log)
	}

	scanner := scan.New(fs, code, scan.Options{
		FilterUppercase: cfg.FilterUppercase,
		Excludes:        cfg.Excludes(),
		Workers:         cfg.Workers,
		DisableCodeScan: disableCode,
		RequireCodeScan: cfg.Semgrep.Required,
	}, log)

	return scanner.Scan(ctx, root)
}

func newAdapter(cfg config.Config, log logger.Logger) *codepattern.Adapter {
	runner := codepattern.NewSemgrepRunner(cfg.Semgrep.Binary, cfg.Semgrep.Timeout)
	return codepattern.NewAdapter(runner, codepattern.Options{
		Custom:          cfg.CustomPatterns,
		Excludes:        cfg.Excludes(),
		FilterUppercase: cfg.FilterUppercase,
	}, log)
}

// colorize reports whether text output goes to a color terminal
func colorize() bool {
	return outputPath == "" && !color.NoColor
}
