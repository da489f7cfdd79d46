package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/pagegate/internal/parquet"
	"github.com/huangsam/pagegate/schema"
)

// RunExporter is implemented by history stores that can list every run.
type RunExporter interface {
	GetStatus() (schema.HistoryStatus, error)
	GetAllRuns() ([]schema.RunRecord, error)
}

// ExecuteHistoryExport writes every recorded run to <outputFile>.runs.parquet.
func ExecuteHistoryExport(store RunExporter, outputFile string, w io.Writer) (string, error) {
	if outputFile == "" {
		return "", errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return "", fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return "", errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d (%d passed, %d failed)\n", status.TotalRuns, status.PassedRuns, status.FailedRuns)

	records, err := store.GetAllRuns()
	if err != nil {
		return "", fmt.Errorf("failed to retrieve runs: %w", err)
	}

	runs := parquet.ConvertRunRecords(records)
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(runs, runsFile); err != nil {
		return "", fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)
	return runsFile, nil
}
