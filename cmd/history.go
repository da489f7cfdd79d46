package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/internal/iocache"
	"github.com/huangsam/pagegate/internal/outwriter"
	"github.com/huangsam/pagegate/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromViper reads and validates the history backend settings.
func historyBackendFromViper() (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", contract.Configf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", contract.WrapConfig(err, "invalid history database")
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}

	if err := iocache.InitHistory(backend, connStr); err != nil {
		return contract.WrapStorage(err, "failed to initialize run history")
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// It does NOT open the store or create tables, so migrations run on a fresh database.
func historyMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// requireHistory fails when no history backend is configured.
func requireHistory() error {
	if cfg.HistoryBackend == schema.NoneBackend || historyStore() == nil {
		return contract.Configf("run history is not enabled. Set --history-backend to sqlite, mysql or postgresql")
	}
	return nil
}

// historyCmd focused on run history management.
//
// Note: status, export and clear use minimal initialization (historySetup) instead of
// the full sharedSetup, since they never touch reports or gate policy.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage the history of gated runs",
	Long: `Manage the history of gated runs.

When a history backend is configured, every run and merge records:
- Run id, page and merge time
- Functional status, score and failed checks
- Performance score and the gate verdict
- Report path and digest

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  list    - Show recent runs
  status  - Show history statistics
  export  - Export runs to Parquet for analytics
  clear   - Remove all recorded runs
  migrate - Run database schema migrations

Examples:
  # Recent login runs
  pagegate history list --page login --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  pagegate history export --history-backend sqlite --output-file runs`,
}

// historyListCmd lists recent runs.
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent gated runs",
	Long: `List recorded runs, newest first. Use --page to restrict the list to one page.

Examples:
  # Last 20 runs across all pages
  pagegate history list --history-backend sqlite

  # Last 5 home runs as JSON
  pagegate history list --page home --limit 5 --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := requireHistory(); err != nil {
			return err
		}
		records, err := historyStore().ListRuns(cfg.Page, cfg.HistoryLimit)
		if err != nil {
			return contract.WrapStorage(err, "failed to list runs")
		}
		return outwriter.NewOutWriter().WriteHistory(records, cfg)
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about the run history.

Displays:
- Backend type and connection status
- Total, passed and failed runs
- Last and oldest run timestamps
- Database table sizes

Examples:
  # Check run history status
  pagegate history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetHistoryStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		outwriter.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports run history to Parquet.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export every recorded run to Parquet format for use with analytics tools.

Writes <output-file>.runs.parquet.

Requires: --output-file parameter

Examples:
  # Export all runs
  pagegate history export --history-backend sqlite --output-file pagegate

  # Use with DuckDB for analysis
  duckdb -c "SELECT page, avg(performance_score) FROM read_parquet('pagegate.runs.parquet') GROUP BY page"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := requireHistory(); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
		exporter, ok := iocache.Manager.GetHistoryStore().(iocache.RunExporter)
		if !ok {
			contract.LogFatal("Failed to export run history", errors.New("history store does not support export"))
		}
		if _, err := iocache.ExecuteHistoryExport(exporter, cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	Long: `Delete every recorded run.

For SQLite the database file is removed. For MySQL and PostgreSQL the runs table is dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  pagegate history export --history-backend sqlite --output-file backup
  pagegate history clear --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the connection opened during setup before removing the data
		iocache.CloseHistory()
		dbFilePath := contract.GetHistoryDBFilePath()
		if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect != "" {
			dbFilePath = cfg.HistoryDBConnect
		}
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbFilePath, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  pagegate history migrate --history-backend postgresql --history-db-connect "host=db dbname=ci"

  # Rollback to initial state
  pagegate history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
