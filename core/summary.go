package core

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/huangsam/pagegate/schema"
)

// Summary tuning.
const (
	diagnosticScoreCutoff = 0.9
	unknownURL            = "Unknown URL"
	learnMoreMarker       = "[Learn more]"
	urlAuditID            = "server-response-time"
)

// SummarizePerformance turns a raw audit into category scores, the weighted metric
// breakdown and the failing diagnostics. It fails only when there is no audit to read.
func SummarizePerformance(page schema.PageID, p schema.PerformanceResult, minPassScore int) (schema.PerformanceSummary, error) {
	lh, err := p.Lighthouse()
	if err != nil {
		return schema.PerformanceSummary{}, fmt.Errorf("cannot summarize performance for %s: %w", page, err)
	}

	summary := schema.PerformanceSummary{
		Page:         page,
		URL:          summaryURL(lh),
		FetchTime:    lh.FetchTime,
		Categories:   summarizeCategories(lh),
		Metrics:      []schema.MetricContribution{},
		Diagnostics:  []schema.Diagnostic{},
		MinPassScore: minPassScore,
	}

	perf := lh.Categories["performance"]
	weighted := make(map[string]struct{})
	total := 0.0
	for _, ref := range perf.AuditRefs {
		if ref.Weight <= 0 {
			continue
		}
		weighted[ref.ID] = struct{}{}
		audit := lh.Audits[ref.ID]
		score := 0.0
		if audit.Score != nil {
			score = *audit.Score
		}
		m := schema.MetricContribution{
			ID:           ref.ID,
			Title:        cmp.Or(audit.Title, ref.ID),
			DisplayValue: cmp.Or(audit.DisplayValue, "N/A"),
			Score:        score,
			Weight:       ref.Weight,
			Contribution: score * ref.Weight,
		}
		total += m.Contribution
		summary.Metrics = append(summary.Metrics, m)
	}

	if len(summary.Metrics) > 0 {
		summary.ComputedPerformance = int(math.Round(total))
	} else {
		// Without weighted metrics fall back to the reported category score.
		summary.ComputedPerformance = toPercent(perf.Score)
	}
	summary.Passed = summary.ComputedPerformance >= minPassScore

	inPerformance := make(map[string]struct{}, len(perf.AuditRefs))
	for _, ref := range perf.AuditRefs {
		inPerformance[ref.ID] = struct{}{}
	}
	for _, id := range slices.Sorted(maps.Keys(lh.Audits)) {
		audit := lh.Audits[id]
		if audit.Score == nil || *audit.Score >= diagnosticScoreCutoff {
			continue
		}
		if _, ok := inPerformance[id]; !ok {
			continue
		}
		if _, ok := weighted[id]; ok {
			continue
		}
		summary.Diagnostics = append(summary.Diagnostics, schema.Diagnostic{
			ID:      id,
			Title:   cmp.Or(audit.Title, id),
			Score:   *audit.Score,
			Details: diagnosticDetails(audit),
		})
	}
	slices.SortStableFunc(summary.Diagnostics, func(a, b schema.Diagnostic) int {
		return cmp.Compare(a.Score, b.Score)
	})

	return summary, nil
}

// summarizeCategories returns the summary categories in display order.
func summarizeCategories(lh schema.LighthouseReport) []schema.CategoryScore {
	out := make([]schema.CategoryScore, 0, len(schema.SummaryCategoryIDs))
	for _, id := range schema.SummaryCategoryIDs {
		c := lh.Categories[id]
		score := toPercent(c.Score)
		out = append(out, schema.CategoryScore{
			ID:    id,
			Title: cmp.Or(c.Title, id),
			Score: score,
			Label: schema.LabelForScore(float64(score)),
		})
	}
	return out
}

// summaryURL picks the audited URL, preferring what the server actually answered.
func summaryURL(lh schema.LighthouseReport) string {
	if audit, ok := lh.Audits[urlAuditID]; ok && len(audit.Details) > 0 {
		var details struct {
			Items []struct {
				URL string `json:"url"`
			} `json:"items"`
		}
		if err := json.Unmarshal(audit.Details, &details); err == nil && len(details.Items) > 0 && details.Items[0].URL != "" {
			return details.Items[0].URL
		}
	}
	return cmp.Or(lh.FinalURL, lh.RequestedURL, unknownURL)
}

// diagnosticDetails describes why an audit failed.
func diagnosticDetails(audit schema.LighthouseAudit) string {
	if audit.DisplayValue != "" {
		return audit.DisplayValue
	}
	if len(audit.Details) > 0 {
		var details struct {
			Items *[]json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(audit.Details, &details); err == nil && details.Items != nil {
			return fmt.Sprintf("%d items found", len(*details.Items))
		}
	}
	if audit.Description == "" {
		return "No details"
	}
	before, _, _ := strings.Cut(audit.Description, learnMoreMarker)
	return strings.TrimSpace(before)
}

// toPercent rounds a 0-1 score to an integer percentage. Nil counts as 0.
func toPercent(score *float64) int {
	if score == nil {
		return 0
	}
	return int(math.Round(*score * 100))
}
