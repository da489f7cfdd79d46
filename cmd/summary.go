package cmd

import (
	"github.com/huangsam/pagegate/core"
	"github.com/spf13/cobra"
)

// summaryCmd explains the performance side of a persisted report.
var summaryCmd = &cobra.Command{
	Use:   "summary [report-path]",
	Short: "Summarize the Lighthouse results of a persisted merged report",
	Long: `Break down the performance section of a merged report.

Shows:
- Category scores
- Weighted metrics and the score they contribute
- Failing diagnostics
- PASS/FAIL against --min-pass-score

The summary is informational and never fails the build.

Examples:
  # Summary of the persisted home report
  pagegate summary --page home

  # Standalone HTML dashboard
  pagegate summary --page login --output html --output-file perf.html`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		_, err := core.ExecuteSummary(rootCtx, cfg, reportStore())
		return err
	},
}
