package schema

// Custom string types for type safety.
type (
	// PageID names one of the pages the pipeline knows how to validate.
	PageID string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// FunctionalStatus is the overall status reported by the functional collaborator.
	FunctionalStatus string

	// ReportLayout selects where merged reports are persisted.
	ReportLayout string

	// StatusLabel is the PASS/WARN/FAIL label shown next to a 0-100 score.
	StatusLabel string

	// LoadErrorKind classifies a recoverable problem while loading an upstream document.
	LoadErrorKind string
)

// All pages supported.
const (
	LoginPage   PageID = "login"
	HomePage    PageID = "home"
	UnknownPage PageID = "unknown" // only ever written into a report, never accepted as input
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	CSVOut     OutputMode = "csv"
	HTMLOut    OutputMode = "html"
	ParquetOut OutputMode = "parquet"
)

// All functional statuses supported.
const (
	StatusSuccess FunctionalStatus = "success"
	StatusFailed  FunctionalStatus = "failed"
	StatusMissing FunctionalStatus = "missing"
)

// All report layouts supported.
const (
	PerPageLayout ReportLayout = "per-page" // default
	LatestLayout  ReportLayout = "latest"
)

// All status labels supported.
const (
	PassLabel StatusLabel = "PASS"
	WarnLabel StatusLabel = "WARN"
	FailLabel StatusLabel = "FAIL"
)

// All load error kinds supported.
const (
	SourceMissingKind LoadErrorKind = "source_missing"
	ParseErrorKind    LoadErrorKind = "parse_error"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// Process exit codes.
const (
	ExitPass         = 0
	ExitGateFailed   = 1
	ExitConfigError  = 2
	ExitStorageError = 3
)

// AllPageIDs lists every page in a stable order.
var AllPageIDs = []PageID{LoginPage, HomePage}

// ValidPageIDs lists all valid page ids.
var ValidPageIDs = map[PageID]struct{}{
	LoginPage: {},
	HomePage:  {},
}

// ValidOutputModes lists the output modes accepted by report commands.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
	CSVOut:  {},
	HTMLOut: {},
}

// ValidFunctionalStatuses lists all valid functional statuses.
var ValidFunctionalStatuses = map[FunctionalStatus]struct{}{
	StatusSuccess: {},
	StatusFailed:  {},
	StatusMissing: {},
}

// ValidReportLayouts lists all valid report layouts.
var ValidReportLayouts = map[ReportLayout]struct{}{
	PerPageLayout: {},
	LatestLayout:  {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// DefaultPageURLs maps each page to the URL that gets audited.
var DefaultPageURLs = map[PageID]string{
	LoginPage: "https://demoapp-ashen.vercel.app/login/",
	HomePage:  "https://demoapp-ashen.vercel.app/",
}

// ParsePageID validates a raw page name.
func ParsePageID(raw string) (PageID, bool) {
	page := PageID(raw)
	_, ok := ValidPageIDs[page]
	return page, ok
}

// LabelForScore maps a 0-100 score to its status label.
func LabelForScore(score float64) StatusLabel {
	switch {
	case score >= 90:
		return PassLabel
	case score >= 50:
		return WarnLabel
	default:
		return FailLabel
	}
}
