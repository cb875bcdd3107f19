package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pbi-visual/visualcheck/internal/models"
)

// Defaults for run tuning. Each is overridable by flag or environment variable.
const (
	DefaultMetadataDir     = "metadata/reports"
	DefaultResultsDir      = "test-results"
	DefaultParallelism     = 4
	DefaultPageTimeout     = 15 * time.Second
	DefaultErrorGrace      = time.Second
	DefaultScreenshotDelay = 800 * time.Millisecond
	DefaultReportTimeout   = 900 * time.Second
	DefaultBookmarkIdle    = 2 * time.Second
	DefaultSDKURL          = "https://cdnjs.cloudflare.com/ajax/libs/powerbi-client/2.23.1/powerbi.min.js"

	AggregateFileName = "all_reports_results.json"
	HTMLReportName    = "report.html"
)

// RunConfig tunes a single run of the scanner.
type RunConfig struct {
	MetadataDir     string
	ResultsDir      string
	Parallelism     int
	PageTimeout     time.Duration
	ErrorGrace      time.Duration
	ScreenshotDelay time.Duration
	ReportTimeout   time.Duration
	ScanBookmarks   bool
	BookmarkIdle    time.Duration
	SDKURL          string
	Headless        bool
	HTMLReport      bool
}

// DefaultRunConfig returns a RunConfig populated with defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		MetadataDir:     DefaultMetadataDir,
		ResultsDir:      DefaultResultsDir,
		Parallelism:     DefaultParallelism,
		PageTimeout:     DefaultPageTimeout,
		ErrorGrace:      DefaultErrorGrace,
		ScreenshotDelay: DefaultScreenshotDelay,
		ReportTimeout:   DefaultReportTimeout,
		BookmarkIdle:    DefaultBookmarkIdle,
		SDKURL:          DefaultSDKURL,
		Headless:        true,
		HTMLReport:      true,
	}
}

// Validate rejects values the runner cannot work with.
func (c RunConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(c.MetadataDir) == "" {
		problems = append(problems, "metadata directory is empty")
	}
	if strings.TrimSpace(c.ResultsDir) == "" {
		problems = append(problems, "results directory is empty")
	}
	if c.Parallelism < 1 {
		problems = append(problems, fmt.Sprintf("parallelism must be at least 1, got %d", c.Parallelism))
	}
	if c.PageTimeout <= 0 {
		problems = append(problems, "page timeout must be positive")
	}
	if c.ErrorGrace < 0 {
		problems = append(problems, "error grace must not be negative")
	}
	if c.ScreenshotDelay < 0 {
		problems = append(problems, "screenshot delay must not be negative")
	}
	if c.ReportTimeout <= 0 {
		problems = append(problems, "report timeout must be positive")
	}
	if c.ScanBookmarks && c.BookmarkIdle <= 0 {
		problems = append(problems, "bookmark idle window must be positive")
	}
	if strings.TrimSpace(c.SDKURL) == "" {
		problems = append(problems, "SDK URL is empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}
