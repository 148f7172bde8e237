// Package report builds the daily samples-received report: received samples
// grouped by the patient's country with per-group and grand totals.
package report

import "time"

// Title is the report heading.
const Title = "Daily samples received"

// UnknownCountry groups samples whose patient has no country on file.
const UnknownCountry = "Unknown"

// EmptyNotice is shown instead of a report when no sample matched.
const EmptyNotice = "No samples matched your query"

// AnalysisLine is one analysis performed on a sample.
type AnalysisLine struct {
	Keyword string `json:"keyword"`
	Title   string `json:"title"`
}

// SampleRecord is a received sample as returned by the sample query.
type SampleRecord struct {
	SampleID     string         `json:"sample_id"`
	SampleType   string         `json:"sample_type"`
	Country      string         `json:"country"`
	DateReceived *time.Time     `json:"date_received,omitempty"`
	SamplingDate *time.Time     `json:"sampling_date,omitempty"`
	Analyses     []AnalysisLine `json:"analyses"`
}

// Row is a detail line: one analysis of one sample.
type Row struct {
	AnalysisKeyword string     `json:"analysis_keyword"`
	AnalysisTitle   string     `json:"analysis_title"`
	SampleID        string     `json:"sample_id"`
	SampleType      string     `json:"sample_type"`
	DateReceived    *time.Time `json:"date_received,omitempty"`
	SamplingDate    *time.Time `json:"sampling_date,omitempty"`
}

// Group collects the rows of one country.
type Group struct {
	Country       string `json:"country"`
	Rows          []Row  `json:"rows"`
	AnalysesCount int    `json:"analyses_count"`
	SamplesCount  int    `json:"samples_count"`
}

// Footer carries the grand totals.
type Footer struct {
	AnalysesCount int `json:"analyses_count"`
	SamplesCount  int `json:"samples_count"`
}

// Parameter echoes a filter applied to the report.
type Parameter struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Model is the rendered-ready report. Groups keep first-seen country order.
type Model struct {
	Title      string      `json:"title"`
	Parameters []Parameter `json:"parameters"`
	Groups     []Group     `json:"groups"`
	Footer     Footer      `json:"footer"`
}
