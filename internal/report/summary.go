package report

import (
	"math"
	"time"

	"github.com/pbi-visual/visualcheck/internal/models"
)

// Summarize aggregates per-report results into the run summary.
func Summarize(environment, runID string, generatedAt time.Time, results []models.PersistedResult) models.RunSummary {
	if results == nil {
		results = []models.PersistedResult{}
	}

	var summary models.Summary
	summary.TotalReports = len(results)
	for _, result := range results {
		summary.TotalPages += len(result.PageTimings)
		summary.FailedPages += len(result.FailedPages())
		summary.TotalBookmarks += len(result.BookmarkTimings)
		summary.FailedBookmarks += len(result.FailedBookmarks())
		if result.Error != "" {
			summary.ErroredReports++
		}
		if result.Failed() {
			summary.FailedReports++
		}
	}
	summary.PassedPages = summary.TotalPages - summary.FailedPages
	summary.PassRate = passRate(summary.PassedPages, summary.TotalPages)

	return models.RunSummary{
		Environment: environment,
		RunID:       runID,
		GeneratedAt: generatedAt.UTC().Truncate(time.Second),
		Summary:     summary,
		Reports:     results,
	}
}

// passRate is the percentage of passed pages rounded to two decimals, or 0
// when nothing was scanned.
func passRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(passed)/float64(total)*100*100) / 100
}
