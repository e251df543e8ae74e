package envtrace

import (
	"context"
	"fmt"
	"io"

	"github.com/railwayapp/envtrace/internal/compare"
	"github.com/railwayapp/envtrace/internal/export"
	"github.com/railwayapp/envtrace/internal/filesystems"
	"github.com/railwayapp/envtrace/internal/schema"
	"github.com/spf13/cobra"
)

var (
	diffGit  bool
	diffRepo string
)

var diffCmd = &cobra.Command{
	Use:   "diff <old-path|ref> [new-path|ref]",
	Short: "Compare the variable names of two trees",
	Long: `Diff scans two trees and reports which variable names were added, removed or
kept. With --git both arguments are git refs of the repository at --repo; a
missing second ref compares against the working tree.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDiff(cmd.Context(), args, cmd.OutOrStdout()); err != nil {
			fail("Diff failed: %v", err)
		}
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffGit, "git", false, "treat arguments as git refs")
	diffCmd.Flags().StringVar(&diffRepo, "repo", ".", "repository used with --git")
	addOutputFlags(diffCmd)
	addScanFlags(diffCmd)
}

// side is one tree of a comparison
type side struct {
	fs      filesystems.FileSystem
	root    string
	cleanup func() error
}

func runDiff(ctx context.Context, args []string, stdout io.Writer) error {
	repoRoot, err := resolveRoot(diffRepo)
	if err != nil {
		return err
	}

	// Settings come from the current tree so both sides scan the same way
	configRoot := repoRoot
	if !diffGit {
		if configRoot, err = resolveRoot(args[0]); err != nil {
			return err
		}
	}
	cfg, err := loadConfig(configRoot)
	if err != nil {
		return err
	}
	log := newLogger()

	newArg := ""
	if len(args) > 1 {
		newArg = args[1]
	}

	before, err := openSide(ctx, repoRoot, args[0])
	if err != nil {
		return err
	}
	defer before.cleanup()

	after, err := openSide(ctx, repoRoot, newArg)
	if err != nil {
		return err
	}
	defer after.cleanup()

	results := make([]*schema.ScanResult, 0, 2)
	for _, s := range []side{before, after} {
		result, err := scanTree(ctx, s.fs, s.root, cfg, log)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	diff := compare.Compare(results[0].EnvVars, results[1].EnvVars)

	exporter, err := export.New(outputFormat, colorize())
	if err != nil {
		return err
	}
	data, err := exporter.ExportDiff(diff)
	if err != nil {
		return fmt.Errorf("%s export failed: %w", exporter.Name(), err)
	}
	return writeOutput(stdout, data)
}

// openSide resolves arg to a tree. Paths are scanned in place; with --git a
// ref gets a transient worktree and an empty ref means the working tree.
func openSide(ctx context.Context, repoRoot, arg string) (side, error) {
	noop := func() error { return nil }

	if !diffGit {
		if arg == "" {
			arg = "."
		}
		root, err := resolveRoot(arg)
		if err != nil {
			return side{}, err
		}
		return side{fs: filesystems.NewLocalFS(), root: root, cleanup: noop}, nil
	}

	if arg == "" {
		return side{fs: filesystems.NewLocalFS(), root: repoRoot, cleanup: noop}, nil
	}

	wt, err := filesystems.NewGitWorktree(ctx, repoRoot, arg)
	if err != nil {
		return side{}, err
	}
	return side{fs: wt, root: wt.Path(), cleanup: wt.Cleanup}, nil
}
