// Package scan runs a complete scan: discovery, format parsing, the code
// pass and reconciliation.
package scan

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/railwayapp/envtrace/internal/codepattern"
	"github.com/railwayapp/envtrace/internal/discovery"
	"github.com/railwayapp/envtrace/internal/environment"
	"github.com/railwayapp/envtrace/internal/environment/types"
	"github.com/railwayapp/envtrace/internal/filesystems"
	"github.com/railwayapp/envtrace/internal/logger"
	"github.com/railwayapp/envtrace/internal/reconcile"
	"github.com/railwayapp/envtrace/internal/schema"
	"golang.org/x/sync/errgroup"
)

// ErrPathNotFound means the scan root does not exist
var ErrPathNotFound = errors.New("path not found")

// CodeScanner finds variable reads in source code
type CodeScanner interface {
	Available() error
	Scan(ctx context.Context, root string) (*codepattern.Result, error)
}

type Options struct {
	FilterUppercase bool
	Excludes        []string
	Workers         int

	// DisableCodeScan skips the code pass
	DisableCodeScan bool

	// RequireCodeScan turns code pass failures into scan failures
	RequireCodeScan bool
}

type Scanner struct {
	filesystem filesystems.FileSystem
	extractor  *environment.Extractor
	code       CodeScanner
	opts       Options
	log        logger.Logger
}

// New creates a scanner. code may be nil, in which case only the format
// parsers run.
func New(filesystem filesystems.FileSystem, code CodeScanner, opts Options, log logger.Logger) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scanner{
		filesystem: filesystem,
		extractor:  environment.NewExtractor(),
		code:       code,
		opts:       opts,
		log:        log.WithFields(logger.Fields{"component": "scan"}),
	}
}

// fileResult is what one candidate contributed
type fileResult struct {
	occurrences []types.Occurrence
	warning     string
}

// Scan scans root and returns the canonical occurrence set. Per-file
// problems end up in the result's Errors; only a missing root, cancellation
// or a required code pass failing abort the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (*schema.ScanResult, error) {
	info, err := s.filesystem.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, root)
	}

	runCode := s.code != nil && !s.opts.DisableCodeScan
	if runCode && s.opts.RequireCodeScan {
		if err := s.code.Available(); err != nil {
			return nil, err
		}
	}

	result := schema.NewScanResult(root)

	candidates, err := s.discover(ctx, root)
	if err != nil {
		return nil, err
	}

	files, err := s.parse(ctx, candidates)
	if err != nil {
		return nil, err
	}

	lists := make([][]types.Occurrence, 0, len(files)+1)
	for _, file := range files {
		if file.warning != "" {
			s.log.Warn(file.warning)
			result.AddError(file.warning)
		}
		lists = append(lists, file.occurrences)
	}

	if runCode {
		code, err := s.scanCode(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, warning := range code.Warnings {
			s.log.Warn(warning)
			result.AddError(warning)
		}
		lists = append(lists, code.Occurrences)
	}

	merged := reconcile.Merge(lists...)
	if s.opts.FilterUppercase {
		merged = reconcile.FilterUppercase(merged)
	}
	reconcile.Sort(merged)
	result.EnvVars = merged

	s.log.Info(fmt.Sprintf("found %d occurrences in %s", len(merged), root))
	return result, nil
}

func (s *Scanner) discover(ctx context.Context, root string) ([]discovery.Candidate, error) {
	scanner := discovery.NewScanner(s.filesystem, s.opts.Excludes, s.log)
	for _, format := range s.extractor.Formats() {
		scanner.RegisterDetector(format)
	}

	candidates, err := scanner.Discover(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	return candidates, nil
}

// parse runs the format extractors over candidates in parallel. Results are
// stored by candidate index so the merge sees them in discovery order.
func (s *Scanner) parse(ctx context.Context, candidates []discovery.Candidate) ([]fileResult, error) {
	results := make([]fileResult, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, candidate := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.parseFile(ctx, candidate)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scanner) parseFile(ctx context.Context, candidate discovery.Candidate) fileResult {
	content, err := s.filesystem.ReadFile(candidate.Path)
	if err != nil {
		// Manifest candidates come from loose hints; their read failures are not reported
		if candidate.Format == discovery.FormatKubernetes {
			s.log.Trace(fmt.Sprintf("skipping unreadable manifest %s: %v", candidate.Path, err))
			return fileResult{}
		}
		return fileResult{warning: fmt.Sprintf("failed to read %s: %v", candidate.Path, err)}
	}

	occurrences, err := s.extractor.Extract(ctx, candidate.Format, candidate.Path, content)
	if err != nil {
		return fileResult{warning: fmt.Sprintf("skipping %s: %v", candidate.Path, err)}
	}

	s.log.Trace(fmt.Sprintf("%s: %d occurrences from %s", candidate.Path, len(occurrences), candidate.Format))
	return fileResult{occurrences: occurrences}
}

// scanCode runs the code pass. Failures are warnings unless the pass is
// required.
func (s *Scanner) scanCode(ctx context.Context, root string) (*codepattern.Result, error) {
	code, err := s.code.Scan(ctx, root)
	if err == nil {
		return code, nil
	}
	if s.opts.RequireCodeScan || ctx.Err() != nil {
		return nil, fmt.Errorf("code scan failed: %w", err)
	}

	warning := fmt.Sprintf("source code was not scanned: %v", err)
	if errors.Is(err, codepattern.ErrToolNotInstalled) {
		warning = "semgrep is not installed; source code was not scanned for environment variables"
	}
	return &codepattern.Result{Warnings: []string{warning}}, nil
}
