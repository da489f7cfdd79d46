package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
)

// missingPerformanceDoc is what an absent performance result serializes to.
var missingPerformanceDoc = []byte(`{"note":"missing"}`)

// PerformanceResult wraps the raw performance audit document. The payload is
// kept verbatim (compacted) so it can be re-emitted unchanged.
type PerformanceResult struct {
	Raw json.RawMessage
}

// MissingPerformanceResult is the sentinel used when no audit document exists.
func MissingPerformanceResult() PerformanceResult {
	return PerformanceResult{}
}

// NewPerformanceResult wraps a raw audit document, which must be a JSON object.
func NewPerformanceResult(data []byte) (PerformanceResult, error) {
	var p PerformanceResult
	if err := p.UnmarshalJSON(data); err != nil {
		return PerformanceResult{}, err
	}
	return p, nil
}

// IsMissing reports whether this is the missing sentinel.
func (p PerformanceResult) IsMissing() bool {
	return len(p.Raw) == 0
}

// Score returns categories.performance.score, or nil when it is absent or not a number.
func (p PerformanceResult) Score() *float64 {
	if p.IsMissing() {
		return nil
	}
	var doc struct {
		Categories struct {
			Performance *struct {
				Score *float64 `json:"score"`
			} `json:"performance"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(p.Raw, &doc); err != nil {
		return nil
	}
	if doc.Categories.Performance == nil || doc.Categories.Performance.Score == nil {
		return nil
	}
	score := *doc.Categories.Performance.Score
	return &score
}

// Lighthouse decodes the payload as a Lighthouse report.
func (p PerformanceResult) Lighthouse() (LighthouseReport, error) {
	var report LighthouseReport
	if p.IsMissing() {
		return report, errors.New("performance result is missing")
	}
	if err := json.Unmarshal(p.Raw, &report); err != nil {
		return report, err
	}
	return report, nil
}

// Clone returns a deep copy.
func (p PerformanceResult) Clone() PerformanceResult {
	return PerformanceResult{Raw: slices.Clone(p.Raw)}
}

// MarshalJSON emits the raw payload, or the missing sentinel.
func (p PerformanceResult) MarshalJSON() ([]byte, error) {
	if p.IsMissing() {
		return slices.Clone(missingPerformanceDoc), nil
	}
	return p.Raw, nil
}

// UnmarshalJSON keeps the payload verbatim. A lone "note" object is the missing sentinel.
func (p *PerformanceResult) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("performance result must be a JSON object")
	}
	if _, ok := fields["note"]; ok && len(fields) == 1 {
		p.Raw = nil
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	p.Raw = buf.Bytes()
	return nil
}

// LighthouseReport is the subset of a Lighthouse JSON report that is summarized.
type LighthouseReport struct {
	RequestedURL string                        `json:"requestedUrl"`
	FinalURL     string                        `json:"finalUrl"`
	FetchTime    string                        `json:"fetchTime"`
	Categories   map[string]LighthouseCategory `json:"categories"`
	Audits       map[string]LighthouseAudit    `json:"audits"`
}

// LighthouseCategory is one scored category such as performance or seo.
type LighthouseCategory struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Score     *float64             `json:"score"`
	AuditRefs []LighthouseAuditRef `json:"auditRefs"`
}

// LighthouseAuditRef links a category to an audit with a weight.
type LighthouseAuditRef struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
	Group  string  `json:"group,omitempty"`
}

// LighthouseAudit is a single audit result.
type LighthouseAudit struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Score        *float64        `json:"score"`
	DisplayValue string          `json:"displayValue"`
	Details      json.RawMessage `json:"details,omitempty"`
}
