package cmd

import (
	"github.com/huangsam/pagegate/core"
	"github.com/huangsam/pagegate/internal/collab"
	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/internal/publish"
	"github.com/spf13/cobra"
)

// runCmd drives both collaborators and gates on the merged result.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run functional checks and a Lighthouse audit, merge them and gate the build",
	Long: `Run the browser functional checks and the Lighthouse performance audit for one page,
merge both results into a single report and decide whether the build passes.

The two collaborators run one after the other. A collaborator that fails or prints
nothing usable does not abort the run; its side of the report is marked missing and
the gate decides what that means.

Outputs:
- <output-dir>/functional-report-<page>.json - functional result as printed
- <output-dir>/lh-report-<page>.json - Lighthouse report
- <output-dir>/merged-report-<page>.json - merged report (merged-report.json with --layout latest)

Exit codes:
  0 - gate passed
  1 - gate failed
  2 - configuration error
  3 - the merged report could not be written

Examples:
  # Validate the login page
  PAGE=login pagegate run

  # Stricter performance budget and a CEL rule
  pagegate run --page home --threshold 90 --rules "report.functionalScore == 1"

  # Keep history and publish the report
  pagegate run --page login --history-backend sqlite --publish s3://ci-reports/pagegate`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		publisher, err := publish.NewPublisher(rootCtx, cfg)
		if err != nil {
			contract.LogWarn("publishing disabled", err)
		} else if publisher != nil {
			defer func() { _ = publisher.Close() }()
		}

		runner := collab.NewExecRunner(cfg.FunctionalCommand, cfg.PerformanceCommand)
		deps := core.Deps{
			Functional:  runner,
			Performance: runner,
			Store:       reportStore(),
			History:     historyStore(),
			Publisher:   publisher,
		}
		_, err = core.ExecuteRun(rootCtx, cfg, deps)
		return err
	},
}
