package envtrace

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [path]",
	Short: "Print the semgrep rules a scan of path would run",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root, err := resolveRoot(sourcePath(args))
		if err != nil {
			fail("Rules failed: %v", err)
		}

		cfg, err := loadConfig(root)
		if err != nil {
			fail("Rules failed: %v", err)
		}

		rules, err := newAdapter(cfg, newLogger()).Rules()
		if err != nil {
			fail("Rules failed: %v", err)
		}

		data, err := rules.Encode()
		if err != nil {
			fail("Rules failed: %v", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	},
}
