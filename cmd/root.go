package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/internal/iocache"
	"github.com/huangsam/pagegate/internal/reportstore"
	"github.com/huangsam/pagegate/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// historyManager is the global run history manager instance.
var historyManager contract.HistoryManager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "pagegate",
	Short: "Merge functional and Lighthouse results into one report and gate CI on it.",
	Long: `Pagegate runs the browser functional checks and the Lighthouse performance audit
for a page, merges both into a single persisted report, and decides whether the build passes.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	setConfigLocation()

	// Set environment variable prefix
	viper.SetEnvPrefix("PAGEGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// PAGE is what existing CI pipelines already export
	_ = viper.BindEnv("page", "PAGEGATE_PAGE", "PAGE")

	// Set defaults in Viper
	viper.SetDefault("output-dir", contract.DefaultOutputDir)
	viper.SetDefault("layout", schema.PerPageLayout)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("threshold", schema.DefaultPerformanceThresholdPercent)
	viper.SetDefault("require-functional-pass", true)
	viper.SetDefault("require-success-status", false)
	viper.SetDefault("validate", true)
	viper.SetDefault("min-pass-score", schema.DefaultMinPassScore)
	viper.SetDefault("history-backend", schema.NoneBackend)
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("limit", contract.DefaultHistoryLimit)
	viper.SetDefault("functional-command", contract.DefaultFunctionalCommand)
	viper.SetDefault("performance-command", contract.DefaultPerformanceCommand)
}

// setConfigLocation points Viper at --config or the default .pagegate.yaml search path.
func setConfigLocation() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".pagegate") // Name of config file (without extension)
	viper.SetConfigType("yaml")      // We'll use YAML format
	viper.AddConfigPath(".")         // Look in the current directory
	viper.AddConfigPath("$HOME")     // Look in the home directory
}

// loadConfigFile reads the config file if present.
func loadConfigFile() error {
	setConfigLocation()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return contract.WrapConfig(err, "error reading config file")
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return contract.WrapConfig(err, "unable to unmarshal config")
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.ReportPathStr = ""
	if len(args) == 1 {
		input.ReportPathStr = args[0]
	}

	// 4. Run all validation and complex parsing.
	// This function now populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 5. Initialize run history with validated config
	if err := iocache.InitHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return contract.WrapStorage(err, "failed to initialize run history")
	}

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// reportStore builds the report store for the validated config.
func reportStore() *reportstore.FileStore {
	return reportstore.NewFileStore(cfg.OutputDir, cfg.Layout, cfg.ValidateDocuments)
}

// historyStore returns the configured history store, if any.
func historyStore() contract.HistoryStore {
	if historyManager == nil {
		return nil
	}
	return historyManager.GetHistoryStore()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetHistoryManager sets the global history manager.
func SetHistoryManager(mgr contract.HistoryManager) {
	historyManager = mgr
}
