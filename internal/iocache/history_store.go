package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// runsTable holds one row per gated run.
const runsTable = "pagegate_runs"

// sqliteTimeLayout keeps SQLite timestamps fixed-width so they sort as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// runColumns is the column list shared by inserts and selects.
const runColumns = `run_id, page, merged_at, functional_status, functional_score, performance_score,
	passed, reason, threshold, failed_checks, report_path, report_digest`

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (*HistoryStoreImpl, error) {
	if backend == schema.NoneBackend || backend == "" {
		return &HistoryStoreImpl{backend: schema.NoneBackend}, nil
	}

	db, driverName, err := openDatabase(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure parseTime=true is set."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is writable."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if _, err := db.Exec(createRunsTableQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", runsTable, err)
	}

	return &HistoryStoreImpl{db: db, backend: backend, driverName: driverName}, nil
}

// openDatabase opens a handle for the backend without verifying the connection.
func openDatabase(backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetHistoryDBFilePath()
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
		return db, "sqlite", nil

	case schema.MySQLBackend:
		db, err := sql.Open("mysql", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname?parseTime=true", err)
		}
		return db, "mysql", nil

	case schema.PostgreSQLBackend:
		db, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=... user=...", err)
		}
		return db, "pgx", nil

	default:
		return nil, "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// createRunsTableQuery returns the CREATE TABLE query for pagegate_runs.
func createRunsTableQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(64) PRIMARY KEY,
				page VARCHAR(64) NOT NULL,
				merged_at DATETIME(3) NOT NULL,
				functional_status VARCHAR(16) NOT NULL,
				functional_score INT NOT NULL,
				performance_score DOUBLE,
				passed BOOLEAN NOT NULL,
				reason VARCHAR(64) NOT NULL,
				threshold DOUBLE NOT NULL,
				failed_checks TEXT NOT NULL,
				report_path TEXT NOT NULL,
				report_digest VARCHAR(80) NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				page TEXT NOT NULL,
				merged_at TIMESTAMPTZ NOT NULL,
				functional_status TEXT NOT NULL,
				functional_score INT NOT NULL,
				performance_score DOUBLE PRECISION,
				passed BOOLEAN NOT NULL,
				reason TEXT NOT NULL,
				threshold DOUBLE PRECISION NOT NULL,
				failed_checks TEXT NOT NULL,
				report_path TEXT NOT NULL,
				report_digest TEXT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				page TEXT NOT NULL,
				merged_at TEXT NOT NULL,
				functional_status TEXT NOT NULL,
				functional_score INTEGER NOT NULL,
				performance_score REAL,
				passed INTEGER NOT NULL,
				reason TEXT NOT NULL,
				threshold REAL NOT NULL,
				failed_checks TEXT NOT NULL,
				report_path TEXT NOT NULL,
				report_digest TEXT NOT NULL
			);
		`, quotedTableName)
	}
}

// RecordRun stores one run.
func (hs *HistoryStoreImpl) RecordRun(record schema.RunRecord) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	failedChecks := record.FailedChecks
	if failedChecks == nil {
		failedChecks = []string{}
	}
	checksJSON, err := json.Marshal(failedChecks)
	if err != nil {
		return fmt.Errorf("failed to marshal failed checks: %w", err)
	}

	var perf sql.NullFloat64
	if record.PerformanceScore != nil {
		perf = sql.NullFloat64{Float64: *record.PerformanceScore, Valid: true}
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(runsTable, hs.backend), runColumns, placeholders(hs.backend, 1, 12))
	args := []any{
		record.RunID, string(record.Page), formatTime(record.MergedAt, hs.backend),
		string(record.FunctionalStatus), record.FunctionalScore, perf,
		record.Passed, record.Reason, record.Threshold, string(checksJSON),
		record.ReportPath, record.ReportDigest,
	}

	if _, err := hs.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", record.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. An empty page means all pages.
func (hs *HistoryStoreImpl) ListRuns(page schema.PageID, limit int) ([]schema.RunRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = contract.DefaultHistoryLimit
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	var query string
	var args []any
	if page == "" {
		query = fmt.Sprintf(`SELECT %s FROM %s ORDER BY merged_at DESC, run_id DESC LIMIT %s`,
			runColumns, quotedTableName, placeholders(hs.backend, 1, 1))
		args = []any{limit}
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE page = %s ORDER BY merged_at DESC, run_id DESC LIMIT %s`,
			runColumns, quotedTableName, placeholders(hs.backend, 1, 1), placeholders(hs.backend, 2, 1))
		args = []any{string(page), limit}
	}

	rows, err := hs.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		record, err := hs.scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllRuns returns every recorded run, oldest first.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY merged_at, run_id`, runColumns, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		record, err := hs.scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// scanRun reads one row laid out as runColumns.
func (hs *HistoryStoreImpl) scanRun(rows *sql.Rows) (schema.RunRecord, error) {
	var (
		record   schema.RunRecord
		page     string
		status   string
		perf     sql.NullFloat64
		checks   string
		mergedAt any
	)

	var mergedAtStr string
	var mergedAtTime time.Time
	if hs.backend == schema.SQLiteBackend {
		mergedAt = &mergedAtStr
	} else {
		mergedAt = &mergedAtTime
	}

	if err := rows.Scan(&record.RunID, &page, mergedAt, &status, &record.FunctionalScore, &perf,
		&record.Passed, &record.Reason, &record.Threshold, &checks, &record.ReportPath, &record.ReportDigest); err != nil {
		return record, fmt.Errorf("failed to scan run: %w", err)
	}

	if hs.backend == schema.SQLiteBackend {
		parsed, err := time.Parse(time.RFC3339Nano, mergedAtStr)
		if err != nil {
			return record, fmt.Errorf("failed to parse merged_at: %w", err)
		}
		mergedAtTime = parsed
	}
	record.MergedAt = mergedAtTime.UTC()
	record.Page = schema.PageID(page)
	record.FunctionalStatus = schema.FunctionalStatus(status)
	if perf.Valid {
		v := perf.Float64
		record.PerformanceScore = &v
	}
	record.FailedChecks = []string{}
	if checks != "" {
		if err := json.Unmarshal([]byte(checks), &record.FailedChecks); err != nil {
			return record, fmt.Errorf("failed to parse failed_checks for run %s: %w", record.RunID, err)
		}
	}
	return record, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	countQuery := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) FROM %s", quotedTableName)
	if err := hs.db.QueryRow(countQuery).Scan(&status.TotalRuns, &status.PassedRuns); err != nil {
		return status, fmt.Errorf("failed to count runs: %w", err)
	}
	status.FailedRuns = status.TotalRuns - status.PassedRuns
	status.TableSizes[runsTable] = int64(status.TotalRuns)

	if status.TotalRuns == 0 {
		return status, nil
	}

	lastQuery := fmt.Sprintf("SELECT run_id, merged_at FROM %s ORDER BY merged_at DESC, run_id DESC LIMIT 1", quotedTableName)
	lastID, lastTime, err := hs.scanIDAndTime(hs.db.QueryRow(lastQuery))
	if err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	status.LastRunID = lastID
	status.LastRunTime = lastTime

	oldestQuery := fmt.Sprintf("SELECT run_id, merged_at FROM %s ORDER BY merged_at ASC, run_id ASC LIMIT 1", quotedTableName)
	_, oldestTime, err := hs.scanIDAndTime(hs.db.QueryRow(oldestQuery))
	if err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.OldestRunTime = oldestTime

	return status, nil
}

// scanIDAndTime handles the per-backend time storage format.
func (hs *HistoryStoreImpl) scanIDAndTime(row *sql.Row) (string, time.Time, error) {
	var id string
	switch hs.backend {
	case schema.SQLiteBackend:
		var ts string
		if err := row.Scan(&id, &ts); err != nil {
			return "", time.Time{}, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return "", time.Time{}, err
		}
		return id, parsed.UTC(), nil
	default: // MySQL and PostgreSQL store as native datetime
		var ts time.Time
		if err := row.Scan(&id, &ts); err != nil {
			return "", time.Time{}, err
		}
		return id, ts.UTC(), nil
	}
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(sqliteTimeLayout)
	default:
		return t.UTC()
	}
}

// placeholders renders n bind parameters starting at position start.
func placeholders(backend schema.DatabaseBackend, start, n int) string {
	out := make([]byte, 0, n*4)
	for i := range n {
		if i > 0 {
			out = append(out, ", "...)
		}
		if backend == schema.PostgreSQLBackend {
			out = fmt.Appendf(out, "$%d", start+i)
		} else {
			out = append(out, '?')
		}
	}
	return string(out)
}

// quoteTableName quotes a table name for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}
