package outwriter

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"github.com/huangsam/pagegate/schema"
)

//go:embed templates/dashboard.html.tmpl
var templatesFS embed.FS

var dashboardTemplate = template.Must(
	template.New("dashboard.html.tmpl").Funcs(template.FuncMap{
		"percent":    func(score float64) int { return int(math.Round(score * 100)) },
		"oneDecimal": func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"scoreClass": scoreClass,
		"label":      func(score int) string { return string(schema.LabelForScore(float64(score))) },
	}).ParseFS(templatesFS, "templates/dashboard.html.tmpl"),
)

// dashboardData is what the dashboard template renders.
type dashboardData struct {
	Summary       schema.PerformanceSummary
	ExecutionTime string
	Functional    schema.FunctionalResult
	FailedChecks  []string
	TotalWeight   float64
	ResultLabel   string
	GeneratedAt   string
}

// WriteDashboard renders the self-contained HTML dashboard for a summary.
func WriteDashboard(w io.Writer, summary schema.PerformanceSummary, report schema.MergedReport) error {
	data := dashboardData{
		Summary:       summary,
		ExecutionTime: report.MergedAt.UTC().Format(timeLayout),
		Functional:    report.Functional,
		FailedChecks:  report.FailedChecks,
		ResultLabel:   resultLabel(summary),
		GeneratedAt:   time.Now().UTC().Format(timeLayout),
	}
	for _, m := range summary.Metrics {
		data.TotalWeight += m.Weight
	}
	if err := dashboardTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

// scoreClass picks the CSS class for a 0-100 score.
func scoreClass(score int) string {
	switch schema.LabelForScore(float64(score)) {
	case schema.PassLabel:
		return "pass"
	case schema.WarnLabel:
		return "warn"
	default:
		return "fail"
	}
}
