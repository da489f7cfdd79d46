package cmd

import (
	"github.com/huangsam/pagegate/core"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check [report-path]",
	Short: "Re-evaluate the gate against a persisted merged report (fails build on violations)",
	Long: `Load a merged report written by run or merge and apply the gate policy again.

Designed for CI steps that are separate from the step which produced the report, so a
job can record results first and enforce the policy later.

Default policy: performance >= 80% and every functional check passed

Examples:
  # Check the persisted login report
  pagegate check --page login

  # Check an explicit report with a stricter budget
  pagegate check lighthouse/merged-report-home.json --threshold 95

  # Machine-readable verdict
  pagegate check --page login --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		_, err := core.ExecuteCheck(rootCtx, cfg, reportStore())
		return err
	},
}
