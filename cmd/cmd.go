// Package cmd defines the command-line interface for pagegate.
package cmd

import (
	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Unknown or malformed flags are configuration errors
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return contract.WrapConfig(err, "invalid flag")
	})

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("page", "p", "", "Page to validate: login or home (falls back to $PAGE)")
	rootCmd.PersistentFlags().String("output-dir", contract.DefaultOutputDir, "Directory holding upstream documents and merged reports")
	rootCmd.PersistentFlags().String("layout", string(schema.PerPageLayout), "Merged report layout: per-page or latest")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or csv or html")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	rootCmd.PersistentFlags().Float64("threshold", schema.DefaultPerformanceThresholdPercent, "Minimum performance score percent (0-100) for the gate to pass")
	rootCmd.PersistentFlags().Bool("require-functional-pass", true, "Fail the gate when any functional check failed")
	rootCmd.PersistentFlags().Bool("require-success-status", false, "Fail the gate unless the functional status is success")
	rootCmd.PersistentFlags().StringSlice("rules", nil, "Extra CEL gate rules evaluated against the report (e.g., 'report.functionalScore == 1')")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runCmd to Viper
	runCmd.Flags().String("functional-command", contract.DefaultFunctionalCommand, "Functional collaborator command ({page} is substituted)")
	runCmd.Flags().String("performance-command", contract.DefaultPerformanceCommand, "Performance collaborator command ({page}, {url} and {output} are substituted)")
	runCmd.Flags().Bool("validate", true, "Validate upstream documents against their JSON schemas")
	runCmd.Flags().String("publish", "", "Upload the merged report to s3://bucket/prefix or gs://bucket/prefix")
	runCmd.Flags().String("publish-region", "", "Region for s3:// publishing (defaults to the AWS environment)")
	runCmd.Flags().String("publish-endpoint", "", "Custom endpoint for S3-compatible storage")
	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		contract.LogFatal("Error binding run flags", err)
	}

	// Bind all flags of mergeCmd to Viper
	mergeCmd.Flags().String("functional", "", "Functional result document (defaults to <output-dir>/functional-report-<page>.json)")
	mergeCmd.Flags().String("performance", "", "Lighthouse report (defaults to <output-dir>/lh-report-<page>.json)")
	if err := viper.BindPFlags(mergeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding merge flags", err)
	}

	// Bind all flags of summaryCmd to Viper
	summaryCmd.Flags().Int("min-pass-score", schema.DefaultMinPassScore, "Minimum computed performance score (0-100) for the summary to pass")
	if err := viper.BindPFlags(summaryCmd.Flags()); err != nil {
		contract.LogFatal("Error binding summary flags", err)
	}

	// Bind all flags of historyListCmd to Viper
	historyListCmd.Flags().IntP("limit", "l", contract.DefaultHistoryLimit, "Number of runs to display")
	if err := viper.BindPFlags(historyListCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history list flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
