// Package parquet exports run history to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/pagegate/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one gated run. It maps to the pagegate_runs table.
type Run struct {
	RunID    string    `parquet:"run_id,snappy"`
	Page     string    `parquet:"page,snappy,dict"`
	MergedAt time.Time `parquet:"merged_at,snappy"`

	FunctionalStatus string `parquet:"functional_status,snappy,dict"`
	FunctionalScore  int32  `parquet:"functional_score,snappy"`

	// PerformanceScore is null when the audit produced no score
	PerformanceScore *float64 `parquet:"performance_score,optional,snappy"`

	Passed       bool     `parquet:"passed,snappy"`
	Reason       string   `parquet:"reason,snappy,dict"`
	Threshold    float64  `parquet:"threshold,snappy"`
	FailedChecks []string `parquet:"failed_checks"`
	ReportPath   string   `parquet:"report_path,snappy"`
	ReportDigest string   `parquet:"report_digest,snappy"`
}

// WriteRunsParquet writes runs to a Parquet file at outputPath.
func WriteRunsParquet(data []Run, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	// Schema is derived from the Run struct tags
	writer := parquet.NewGenericWriter[Run](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		_ = file.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush parquet file: %w", err)
	}
	return file.Close()
}

// ConvertRunRecords converts history rows to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		var perf *float64
		if record.PerformanceScore != nil {
			v := *record.PerformanceScore
			perf = &v
		}
		result[i] = Run{
			RunID:            record.RunID,
			Page:             string(record.Page),
			MergedAt:         record.MergedAt,
			FunctionalStatus: string(record.FunctionalStatus),
			FunctionalScore:  int32(record.FunctionalScore),
			PerformanceScore: perf,
			Passed:           record.Passed,
			Reason:           record.Reason,
			Threshold:        record.Threshold,
			FailedChecks:     append([]string(nil), record.FailedChecks...),
			ReportPath:       record.ReportPath,
			ReportDigest:     record.ReportDigest,
		}
	}
	return result
}
