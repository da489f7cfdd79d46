package cmd

import (
	"github.com/huangsam/pagegate/core"
	"github.com/spf13/cobra"
)

// mergeCmd merges documents produced by earlier pipeline steps.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge existing functional and Lighthouse results and gate the build",
	Long: `Merge result documents that earlier pipeline steps already produced, without running
any collaborator. Missing or unreadable documents are treated the same way as in run.

Examples:
  # Merge the standard documents in ./lighthouse
  pagegate merge --page login

  # Merge documents from explicit paths
  pagegate merge --page home --functional out/func.json --performance out/lh.json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		deps := core.Deps{
			Store:   reportStore(),
			History: historyStore(),
		}
		_, err := core.ExecuteMerge(rootCtx, cfg, deps)
		return err
	},
}
