package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintSummary outputs a performance summary, dispatching based on the output format configured.
func PrintSummary(summary schema.PerformanceSummary, report schema.MergedReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, summary)
		}, "Wrote CSV")
	case schema.HTMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteDashboard(w, summary, report)
		}, "Wrote HTML dashboard")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTables(w, summary, cfg)
		}, "Wrote table")
	}
}

// writeSummaryCSV writes one row per category, metric and diagnostic.
func writeSummaryCSV(w io.Writer, s schema.PerformanceSummary) error {
	header := []string{"section", "id", "title", "score", "weight", "contribution", "details"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		var rows [][]string
		for _, c := range s.Categories {
			rows = append(rows, []string{"category", c.ID, c.Title, strconv.Itoa(c.Score), "", "", string(c.Label)})
		}
		for _, m := range s.Metrics {
			rows = append(rows, []string{
				"metric", m.ID, m.Title, formatFloat(m.Score), formatFloat(m.Weight), formatFloat(m.Contribution), m.DisplayValue,
			})
		}
		for _, d := range s.Diagnostics {
			rows = append(rows, []string{"diagnostic", d.ID, d.Title, formatFloat(d.Score), "", "", d.Details})
		}
		rows = append(rows, []string{"result", "computed-performance", "Final Calculated Score", strconv.Itoa(s.ComputedPerformance), "", "", resultLabel(s)})
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeSummaryTables renders categories, the metric breakdown and diagnostics.
func writeSummaryTables(w io.Writer, s schema.PerformanceSummary, cfg *contract.Config) error {
	maxText := GetMaxTableTextWidth(cfg)
	label := func(score float64) string {
		if cfg.UseColors {
			return contract.GetColorLabel(score)
		}
		return contract.GetPlainLabel(score)
	}

	if _, err := fmt.Fprintf(w, "📊 Performance summary for %s (%s)\n", s.Page, truncateText(s.URL, maxText)); err != nil {
		return err
	}

	categories := tablewriter.NewWriter(w)
	categories.Header([]string{"Category", "Score", "Label"})
	categories.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	var catRows [][]string
	for _, c := range s.Categories {
		catRows = append(catRows, []string{c.Title, strconv.Itoa(c.Score), label(float64(c.Score))})
	}
	if err := categories.Bulk(catRows); err != nil {
		return err
	}
	if err := categories.Render(); err != nil {
		return err
	}

	if len(s.Metrics) > 0 {
		metrics := tablewriter.NewWriter(w)
		metrics.Header([]string{"Metric", "Value", "Score", "Weight", "Contribution"})
		metrics.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignRight
		})
		var rows [][]string
		totalWeight := 0.0
		for _, m := range s.Metrics {
			totalWeight += m.Weight
			rows = append(rows, []string{
				m.Title,
				m.DisplayValue,
				strconv.Itoa(int(math.Round(m.Score * 100))),
				fmt.Sprintf("%.0f%%", m.Weight),
				fmt.Sprintf("%.1f", m.Contribution),
			})
		}
		rows = append(rows, []string{"FINAL CALCULATED SCORE", "", "", fmt.Sprintf("%.0f%%", totalWeight), strconv.Itoa(s.ComputedPerformance)})
		if err := metrics.Bulk(rows); err != nil {
			return err
		}
		if err := metrics.Render(); err != nil {
			return err
		}
	}

	if len(s.Diagnostics) > 0 {
		diags := tablewriter.NewWriter(w)
		diags.Header([]string{"Diagnostic", "Score", "Status", "Details"})
		diags.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignLeft
		})
		var rows [][]string
		for _, d := range s.Diagnostics {
			score := math.Round(d.Score * 100)
			rows = append(rows, []string{d.Title, strconv.Itoa(int(score)), label(score), truncateText(d.Details, maxText)})
		}
		if err := diags.Bulk(rows); err != nil {
			return err
		}
		if err := diags.Render(); err != nil {
			return err
		}
	} else if _, err := fmt.Fprintln(w, "No failing performance diagnostics."); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Final result: %s (score %d, minimum %d)\n",
		contract.VerdictLabel(s.Passed, cfg.UseColors), s.ComputedPerformance, s.MinPassScore)
	return err
}

// resultLabel is PASS or FAIL for the summary's pass score.
func resultLabel(s schema.PerformanceSummary) string {
	return contract.VerdictLabel(s.Passed, false)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
