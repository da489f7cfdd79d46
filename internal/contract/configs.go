package contract

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/huangsam/pagegate/schema"
)

// Default values for configuration.
const (
	DefaultOutputDir          = "lighthouse"
	DefaultFunctionalCommand  = "node -e " + functionalEntryScript
	DefaultPerformanceCommand = "lighthouse {url} --output=json --output-path={output} --only-categories=performance --chrome-flags=--headless --quiet"
	DefaultHistoryLimit       = 20
	MaxHistoryLimit           = 1000
)

// functionalEntryScript imports the page's browser test module, calls its
// exported runner and prints the returned result as one JSON line. The test
// modules only return their result, so this prints it for the loader.
// Commands are split on whitespace, so the script must not contain spaces.
const functionalEntryScript = "import('./test-{page}-lambdatest.js')" +
	".then((m)=>Object.values(m)[0]())" +
	".then((r)=>console.log(JSON.stringify(r)))"

// Publish URI schemes.
const (
	S3Scheme  = "s3"
	GCSScheme = "gs"
)

// PageRawInput holds per-page overrides from the YAML config file.
type PageRawInput struct {
	URL    string   `mapstructure:"url"`
	Checks []string `mapstructure:"checks"`
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	Page       schema.PageID // empty when the command does not target a page
	OutputDir  string
	Layout     schema.ReportLayout
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	// ReportPath overrides the persisted report location for check
	ReportPath string

	// FunctionalFile and PerformanceFile override the upstream document locations for merge
	FunctionalFile  string
	PerformanceFile string

	FunctionalCommand  string
	PerformanceCommand string
	ValidateDocuments  bool

	Thresholds   schema.ThresholdConfig
	MinPassScore int

	// PageURLs maps every page to the URL that gets audited
	PageURLs map[schema.PageID]string

	// DeclaredChecks optionally restricts which boolean fields count as checks, per page
	DeclaredChecks map[schema.PageID][]string

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
	HistoryLimit     int

	PublishScheme   string
	PublishBucket   string
	PublishPrefix   string
	PublishRegion   string
	PublishEndpoint string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	ReportPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Page             string `mapstructure:"page"`
	OutputDir        string `mapstructure:"output-dir"`
	Layout           string `mapstructure:"layout"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Gate policy ---
	Threshold             float64  `mapstructure:"threshold"`
	RequireFunctionalPass bool     `mapstructure:"require-functional-pass"`
	RequireSuccessStatus  bool     `mapstructure:"require-success-status"`
	Rules                 []string `mapstructure:"rules"`

	// --- Fields from runCmd.Flags() ---
	FunctionalCommand  string `mapstructure:"functional-command"`
	PerformanceCommand string `mapstructure:"performance-command"`
	Validate           bool   `mapstructure:"validate"`
	Publish            string `mapstructure:"publish"`
	PublishRegion      string `mapstructure:"publish-region"`
	PublishEndpoint    string `mapstructure:"publish-endpoint"`

	// --- Fields from mergeCmd.Flags() ---
	FunctionalFile  string `mapstructure:"functional"`
	PerformanceFile string `mapstructure:"performance"`

	// --- Fields from summaryCmd.Flags() ---
	MinPassScore int `mapstructure:"min-pass-score"`

	// --- Fields from historyListCmd.Flags() ---
	Limit int `mapstructure:"limit"`

	// --- Per-page overrides from config file ---
	Pages map[string]PageRawInput `mapstructure:"pages"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Thresholds.Rules = slices.Clone(c.Thresholds.Rules)
	if c.PageURLs != nil {
		clone.PageURLs = make(map[schema.PageID]string, len(c.PageURLs))
		maps.Copy(clone.PageURLs, c.PageURLs)
	}
	if c.DeclaredChecks != nil {
		clone.DeclaredChecks = make(map[schema.PageID][]string, len(c.DeclaredChecks))
		for page, checks := range c.DeclaredChecks {
			clone.DeclaredChecks[page] = slices.Clone(checks)
		}
	}
	return &clone
}

// RequirePage returns a configuration error unless a valid page is selected.
func (c *Config) RequirePage() error {
	if c.Page == "" {
		return Configf("no page selected. Set --page or the PAGE environment variable to one of: %s", pageList())
	}
	return nil
}

// URLFor returns the audited URL for a page.
func (c *Config) URLFor(page schema.PageID) string {
	if u, ok := c.PageURLs[page]; ok {
		return u
	}
	return schema.DefaultPageURLs[page]
}

// PublishEnabled reports whether reports should be uploaded after a run.
func (c *Config) PublishEnabled() bool {
	return c.PublishScheme != ""
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processPages(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processPublishTarget(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.ReportPath = strings.TrimSpace(input.ReportPathStr)
	cfg.FunctionalFile = strings.TrimSpace(input.FunctionalFile)
	cfg.PerformanceFile = strings.TrimSpace(input.PerformanceFile)
	cfg.ValidateDocuments = input.Validate

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return WrapConfig(err, "invalid --color value")
	}
	cfg.UseColors = colors

	cfg.OutputDir = strings.TrimSpace(input.OutputDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	cfg.Layout = schema.ReportLayout(strings.ToLower(input.Layout))
	if cfg.Layout == "" {
		cfg.Layout = schema.PerPageLayout
	}
	if _, ok := schema.ValidReportLayouts[cfg.Layout]; !ok {
		return Configf("invalid layout '%s'. must be per-page, latest", input.Layout)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return Configf("invalid output format '%s'. must be text, json, csv, html", input.Output)
	}

	if input.Width < 0 {
		return Configf("width cannot be negative (received %d)", input.Width)
	}

	cfg.HistoryLimit = input.Limit
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.HistoryLimit < 0 || cfg.HistoryLimit > MaxHistoryLimit {
		return Configf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxHistoryLimit, input.Limit)
	}

	cfg.FunctionalCommand = strings.TrimSpace(input.FunctionalCommand)
	if cfg.FunctionalCommand == "" {
		cfg.FunctionalCommand = DefaultFunctionalCommand
	}
	cfg.PerformanceCommand = strings.TrimSpace(input.PerformanceCommand)
	if cfg.PerformanceCommand == "" {
		cfg.PerformanceCommand = DefaultPerformanceCommand
	}

	return nil
}

// processPages validates the selected page and applies per-page overrides.
func processPages(cfg *Config, input *ConfigRawInput) error {
	cfg.PageURLs = make(map[schema.PageID]string, len(schema.DefaultPageURLs))
	maps.Copy(cfg.PageURLs, schema.DefaultPageURLs)
	cfg.DeclaredChecks = make(map[schema.PageID][]string)

	for name, override := range input.Pages {
		page, ok := schema.ParsePageID(strings.ToLower(name))
		if !ok {
			return Configf("unknown page '%s' in pages config. must be one of: %s", name, pageList())
		}
		if override.URL != "" {
			u, err := url.Parse(override.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return Configf("invalid url '%s' for page %s", override.URL, page)
			}
			cfg.PageURLs[page] = override.URL
		}
		if len(override.Checks) > 0 {
			cfg.DeclaredChecks[page] = slices.Clone(override.Checks)
		}
	}

	raw := strings.TrimSpace(input.Page)
	if raw == "" {
		cfg.Page = ""
		return nil
	}
	page, ok := schema.ParsePageID(strings.ToLower(raw))
	if !ok {
		return Configf("invalid page '%s'. must be one of: %s", raw, pageList())
	}
	cfg.Page = page
	return nil
}

// processThresholds builds the gate policy.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	if input.Threshold < 0.0 || input.Threshold > 100.0 {
		return Configf("threshold must be between 0.0 and 100.0 (received %.2f)", input.Threshold)
	}
	if input.MinPassScore < 0 || input.MinPassScore > 100 {
		return Configf("min-pass-score must be between 0 and 100 (received %d)", input.MinPassScore)
	}

	var rules []string
	for _, r := range input.Rules {
		if trimmed := strings.TrimSpace(r); trimmed != "" {
			rules = append(rules, trimmed)
		}
	}

	cfg.Thresholds = schema.ThresholdConfig{
		PerformanceThresholdPercent: input.Threshold,
		RequireFunctionalPass:       input.RequireFunctionalPass,
		RequireSuccessStatus:        input.RequireSuccessStatus,
		Rules:                       rules,
	}
	cfg.MinPassScore = input.MinPassScore
	return nil
}

// validateBackendConfig validates the history backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return Configf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return WrapConfig(err, "invalid history database")
	}
	return nil
}

// processPublishTarget parses the optional s3:// or gs:// publish URI.
func processPublishTarget(cfg *Config, input *ConfigRawInput) error {
	cfg.PublishRegion = input.PublishRegion
	cfg.PublishEndpoint = input.PublishEndpoint

	raw := strings.TrimSpace(input.Publish)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return WrapConfig(err, "invalid --publish value")
	}
	if u.Scheme != S3Scheme && u.Scheme != GCSScheme {
		return Configf("invalid --publish scheme '%s'. must be s3:// or gs://", u.Scheme)
	}
	if u.Host == "" {
		return Configf("--publish must name a bucket, e.g. %s://my-bucket/reports", u.Scheme)
	}

	cfg.PublishScheme = u.Scheme
	cfg.PublishBucket = u.Host
	cfg.PublishPrefix = strings.TrimPrefix(u.Path, "/")
	if cfg.PublishPrefix != "" && !strings.HasSuffix(cfg.PublishPrefix, "/") {
		cfg.PublishPrefix += "/"
	}
	return nil
}

// pageList renders the accepted page ids for error messages.
func pageList() string {
	names := make([]string, 0, len(schema.AllPageIDs))
	for _, p := range schema.AllPageIDs {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
