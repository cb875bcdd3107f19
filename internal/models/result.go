package models

import (
	"fmt"
	"time"
)

// ResultFileSuffix is appended to the report id to form the result file name.
const ResultFileSuffix = "_result.json"

// ResultFileName returns the deterministic result file name for a report.
func ResultFileName(reportID string) string {
	return reportID + ResultFileSuffix
}

// ScreenshotName returns the attachment name for a screenshot target.
func ScreenshotName(target ScreenshotTarget) string {
	if target.Kind == TargetBookmark {
		return fmt.Sprintf("bookmark_%s-screenshot", target.Name)
	}
	return target.Name + "-screenshot"
}

// Attachment is a binary artifact stored next to a report's result.
type Attachment struct {
	Name        string `json:"name"`
	Target      string `json:"target"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
}

// PersistedResult is the per-report JSON document written to disk.
type PersistedResult struct {
	ReportID    string `json:"reportId"`
	ReportName  string `json:"reportName"`
	Environment string `json:"environment"`
	RunID       string `json:"runId"`
	ScanResult
	NodeDuration float64      `json:"nodeDuration"`
	Screenshots  []Attachment `json:"screenshots,omitempty"`
	Error        string       `json:"error,omitempty"`
	Passed       bool         `json:"passed"`
}

// NewPersistedResult stamps run metadata onto a scan result.
func NewPersistedResult(descriptor ReportDescriptor, environment string, runID string, scan ScanResult) PersistedResult {
	return PersistedResult{
		ReportID:    descriptor.ID,
		ReportName:  descriptor.Name,
		Environment: environment,
		RunID:       runID,
		ScanResult:  scan,
	}
}

// Failed reports whether the report should count as a failed test: either
// the scan recorded visual errors or the run for this report errored.
func (r PersistedResult) Failed() bool {
	return r.Error != "" || r.HasErrors()
}

// Summary holds the run-wide counters.
type Summary struct {
	TotalReports    int     `json:"totalReports"`
	TotalPages      int     `json:"totalPages"`
	PassedPages     int     `json:"passedPages"`
	FailedPages     int     `json:"failedPages"`
	PassRate        float64 `json:"passRate"`
	TotalBookmarks  int     `json:"totalBookmarks"`
	FailedBookmarks int     `json:"failedBookmarks"`
	ErroredReports  int     `json:"erroredReports"`
	FailedReports   int     `json:"failedReports"`
}

// RunSummary is the aggregate document written once per run.
type RunSummary struct {
	Environment string            `json:"environment"`
	RunID       string            `json:"runId"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Summary     Summary           `json:"summary"`
	Reports     []PersistedResult `json:"reports"`
}
