package schema

// Category ids summarized from a performance audit, in display order.
var SummaryCategoryIDs = []string{"performance", "accessibility", "best-practices", "seo"}

// CategoryScore is a 0-100 category score with its label.
type CategoryScore struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Score int         `json:"score"`
	Label StatusLabel `json:"label"`
}

// MetricContribution is one weighted performance metric.
type MetricContribution struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	DisplayValue string  `json:"displayValue"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Diagnostic is an unweighted performance audit that scored poorly.
type Diagnostic struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Details string  `json:"details"`
}

// PerformanceSummary is the human-facing digest of a performance audit.
type PerformanceSummary struct {
	Page                PageID               `json:"page"`
	URL                 string               `json:"url"`
	FetchTime           string               `json:"fetchTime,omitempty"`
	Categories          []CategoryScore      `json:"categories"`
	Metrics             []MetricContribution `json:"metrics"`
	ComputedPerformance int                  `json:"computedPerformance"`
	Diagnostics         []Diagnostic         `json:"diagnostics"`
	MinPassScore        int                  `json:"minPassScore"`
	Passed              bool                 `json:"passed"`
}
