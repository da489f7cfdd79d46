package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintHistory outputs recorded runs, most recent first.
func PrintHistory(records []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, runCSVHeader, func(cw *csv.Writer) error {
				for _, r := range records {
					if err := cw.Write(runRecordRow(r)); err != nil {
						return fmt.Errorf("failed to write CSV record: %w", err)
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.HTMLOut:
		return contract.Configf("html output is only available for the summary command")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryTable(w, records, cfg)
		}, "Wrote table")
	}
}

// writeHistoryTable renders one row per run.
func writeHistoryTable(w io.Writer, records []schema.RunRecord, cfg *contract.Config) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet.")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Merged At", "Page", "Functional", "Perf", "Verdict", "Reason"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(records))
	for _, r := range records {
		data = append(data, []string{
			r.MergedAt.UTC().Format(timeLayout),
			string(r.Page),
			string(r.FunctionalStatus),
			contract.FormatScore(r.PerformanceScore),
			contract.VerdictLabel(r.Passed, cfg.UseColors),
			truncateText(r.Reason, GetMaxTableTextWidth(cfg)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d run(s). History backend: %s\n", len(records), cfg.HistoryBackend)
	return err
}

// PrintHistoryStatus prints history store status information.
func PrintHistoryStatus(w io.Writer, status schema.HistoryStatus) {
	_, _ = fmt.Fprintf(w, "History Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d (passed: %d, failed: %d)\n", status.TotalRuns, status.PassedRuns, status.FailedRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %s\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.UTC().Format(timeLayout))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.UTC().Format(timeLayout))
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
