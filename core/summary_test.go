package core

import (
	"testing"

	"github.com/huangsam/pagegate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lighthouseFixture = `{
  "requestedUrl": "https://demoapp-ashen.vercel.app/login",
  "finalUrl": "https://demoapp-ashen.vercel.app/login/",
  "fetchTime": "2024-05-01T12:29:00.000Z",
  "categories": {
    "performance": {
      "id": "performance",
      "title": "Performance",
      "score": 0.88,
      "auditRefs": [
        {"id": "first-contentful-paint", "weight": 10, "group": "metrics"},
        {"id": "largest-contentful-paint", "weight": 25, "group": "metrics"},
        {"id": "total-blocking-time", "weight": 30, "group": "metrics"},
        {"id": "cumulative-layout-shift", "weight": 25, "group": "metrics"},
        {"id": "speed-index", "weight": 10, "group": "metrics"},
        {"id": "unused-javascript", "weight": 0},
        {"id": "render-blocking-resources", "weight": 0},
        {"id": "uses-long-cache-ttl", "weight": 0},
        {"id": "server-response-time", "weight": 0},
        {"id": "dom-size", "weight": 0},
        {"id": "network-requests", "weight": 0}
      ]
    },
    "accessibility": {"id": "accessibility", "title": "Accessibility", "score": 0.95}
  },
  "audits": {
    "first-contentful-paint": {"id": "first-contentful-paint", "title": "First Contentful Paint", "score": 0.9, "displayValue": "1.1 s"},
    "largest-contentful-paint": {"id": "largest-contentful-paint", "title": "Largest Contentful Paint", "score": 0.5, "displayValue": "3.9 s"},
    "total-blocking-time": {"id": "total-blocking-time", "title": "Total Blocking Time", "score": 1, "displayValue": "0 ms"},
    "cumulative-layout-shift": {"id": "cumulative-layout-shift", "title": "Cumulative Layout Shift", "score": null},
    "speed-index": {"id": "speed-index", "title": "Speed Index", "score": 0.8, "displayValue": "2.0 s"},
    "unused-javascript": {"id": "unused-javascript", "title": "Reduce unused JavaScript", "score": 0.45, "displayValue": "Potential savings of 120 KiB"},
    "render-blocking-resources": {"id": "render-blocking-resources", "title": "Eliminate render-blocking resources", "score": 0, "details": {"items": [{}, {}, {}]}},
    "uses-long-cache-ttl": {"id": "uses-long-cache-ttl", "title": "Serve static assets with an efficient cache policy", "score": 0.2, "description": "A long cache lifetime can speed up repeat visits. [Learn more](https://developer.chrome.com/docs/lighthouse/)"},
    "server-response-time": {"id": "server-response-time", "title": "Initial server response time was short", "score": 1, "details": {"items": [{"url": "https://demoapp-ashen.vercel.app/login/?ref=audit"}]}},
    "dom-size": {"id": "dom-size", "title": "Avoids an excessive DOM size", "score": 0.95},
    "network-requests": {"id": "network-requests", "title": "Network Requests", "score": null},
    "color-contrast": {"id": "color-contrast", "title": "Background and foreground colors", "score": 0}
  }
}`

func TestSummarizePerformance(t *testing.T) {
	summary, err := SummarizePerformance(schema.LoginPage, mustPerformance(t, lighthouseFixture), schema.DefaultMinPassScore)
	require.NoError(t, err)

	assert.Equal(t, schema.LoginPage, summary.Page)
	assert.Equal(t, "https://demoapp-ashen.vercel.app/login/?ref=audit", summary.URL)
	assert.Equal(t, "2024-05-01T12:29:00.000Z", summary.FetchTime)

	assert.Equal(t, []schema.CategoryScore{
		{ID: "performance", Title: "Performance", Score: 88, Label: schema.WarnLabel},
		{ID: "accessibility", Title: "Accessibility", Score: 95, Label: schema.PassLabel},
		{ID: "best-practices", Title: "best-practices", Score: 0, Label: schema.FailLabel},
		{ID: "seo", Title: "seo", Score: 0, Label: schema.FailLabel},
	}, summary.Categories)

	require.Len(t, summary.Metrics, 5)
	assert.Equal(t, "First Contentful Paint", summary.Metrics[0].Title)
	assert.InDelta(t, 9.0, summary.Metrics[0].Contribution, 1e-9)
	assert.Equal(t, "N/A", summary.Metrics[3].DisplayValue)
	assert.Equal(t, 0.0, summary.Metrics[3].Score)
	// 9 + 12.5 + 30 + 0 + 8 = 59.5
	assert.Equal(t, 60, summary.ComputedPerformance)
	assert.Equal(t, 90, summary.MinPassScore)
	assert.False(t, summary.Passed)

	require.Len(t, summary.Diagnostics, 3)
	assert.Equal(t, "render-blocking-resources", summary.Diagnostics[0].ID)
	assert.Equal(t, "3 items found", summary.Diagnostics[0].Details)
	assert.Equal(t, "uses-long-cache-ttl", summary.Diagnostics[1].ID)
	assert.Equal(t, "A long cache lifetime can speed up repeat visits.", summary.Diagnostics[1].Details)
	assert.Equal(t, "unused-javascript", summary.Diagnostics[2].ID)
	assert.Equal(t, "Potential savings of 120 KiB", summary.Diagnostics[2].Details)
}

func TestSummarizePerformance_Minimal(t *testing.T) {
	summary, err := SummarizePerformance(schema.HomePage, mustPerformance(t, `{"finalUrl":"https://x.test/","categories":{"performance":{"score":0.93}}}`), 90)
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/", summary.URL)
	assert.Empty(t, summary.Metrics)
	assert.Empty(t, summary.Diagnostics)
	assert.Equal(t, 93, summary.ComputedPerformance)
	assert.True(t, summary.Passed)

	bare, err := SummarizePerformance(schema.HomePage, mustPerformance(t, `{}`), 0)
	require.NoError(t, err)
	assert.Equal(t, "Unknown URL", bare.URL)
	assert.True(t, bare.Passed)
}

func TestSummarizePerformance_Missing(t *testing.T) {
	_, err := SummarizePerformance(schema.HomePage, schema.MissingPerformanceResult(), 90)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestDiagnosticDetails(t *testing.T) {
	assert.Equal(t, "No details", diagnosticDetails(schema.LighthouseAudit{}))
	assert.Equal(t, "0 items found", diagnosticDetails(schema.LighthouseAudit{Details: []byte(`{"items":[]}`)}))
	assert.Equal(t, "plain", diagnosticDetails(schema.LighthouseAudit{Description: "plain", Details: []byte(`{"type":"opportunity"}`)}))
}
