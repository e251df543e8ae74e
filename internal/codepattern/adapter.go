// Package codepattern finds environment variable reads in source code by
// running semgrep with envtrace's rule set and converting its findings.
package codepattern

import (
	"context"
	"fmt"

	"github.com/railwayapp/envtrace/internal/environment/types"
	"github.com/railwayapp/envtrace/internal/logger"
)

type Options struct {
	// Custom patterns compiled after the builtin rules
	Custom []CustomPattern

	// Excludes are passed to the tool as --exclude patterns
	Excludes []string

	// FilterUppercase drops names that are not upper snake-case
	FilterUppercase bool
}

// Result holds the occurrences of one run and the tool's own diagnostics
type Result struct {
	Occurrences []types.Occurrence
	Warnings    []string
}

type Adapter struct {
	runner Runner
	opts   Options
	log    logger.Logger
}

func NewAdapter(runner Runner, opts Options, log logger.Logger) *Adapter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Adapter{
		runner: runner,
		opts:   opts,
		log:    log.WithFields(logger.Fields{"component": "codepattern"}),
	}
}

// Available returns ErrToolNotInstalled when the tool cannot be run
func (a *Adapter) Available() error {
	return a.runner.Available()
}

// Rules returns the builtin rules merged with the custom patterns
func (a *Adapter) Rules() (RuleSet, error) {
	builtin, err := BuiltinRules()
	if err != nil {
		return RuleSet{}, err
	}
	for _, p := range a.opts.Custom {
		if err := p.Validate(); err != nil {
			return RuleSet{}, err
		}
	}
	return MergeRules(builtin, a.opts.Custom), nil
}

// Scan runs the tool over root. The merged rules file only lives for the
// duration of the call.
func (a *Adapter) Scan(ctx context.Context, root string) (*Result, error) {
	if err := a.runner.Available(); err != nil {
		return nil, err
	}

	rules, err := a.Rules()
	if err != nil {
		return nil, err
	}

	rulesPath, cleanup, err := writeRulesFile(rules)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	a.log.Debug(fmt.Sprintf("running semgrep with %d rules over %s", len(rules.Rules), root))
	output, err := a.runner.Run(ctx, Request{
		RulesPath: rulesPath,
		Root:      root,
		Excludes:  a.opts.Excludes,
	})
	if err != nil {
		return nil, err
	}

	return a.convert(root, output), nil
}

func (a *Adapter) convert(root string, output *Output) *Result {
	result := &Result{}

	for _, finding := range output.Results {
		occ, ok := toOccurrence(root, finding)
		if !ok {
			a.log.Trace(fmt.Sprintf("dropping finding without a variable name from %s", finding.CheckID))
			continue
		}
		if a.opts.FilterUppercase && !types.IsUppercaseName(occ.Name) {
			continue
		}
		result.Occurrences = append(result.Occurrences, occ)
	}

	for _, toolErr := range output.Errors {
		result.Warnings = append(result.Warnings, fmt.Sprintf("semgrep: %s", toolErr))
	}

	a.log.Debug(fmt.Sprintf("semgrep reported %d occurrences and %d diagnostics", len(result.Occurrences), len(result.Warnings)))
	return result
}
