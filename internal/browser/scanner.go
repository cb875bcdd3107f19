package browser

import (
	"fmt"
	"time"

	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/models"
	"go.uber.org/zap"
)

// ScanOptions bound how long the scanner waits on each page.
type ScanOptions struct {
	PageTimeout   time.Duration
	ErrorGrace    time.Duration
	ScanBookmarks bool
	BookmarkIdle  time.Duration
}

// ScanOptionsFromConfig picks the scan settings out of a run config.
func ScanOptionsFromConfig(cfg config.RunConfig) ScanOptions {
	return ScanOptions{
		PageTimeout:   cfg.PageTimeout,
		ErrorGrace:    cfg.ErrorGrace,
		ScanBookmarks: cfg.ScanBookmarks,
		BookmarkIdle:  cfg.BookmarkIdle,
	}
}

type rawEntry struct {
	Name          string            `json:"name"`
	DisplayName   string            `json:"displayName"`
	Errors        map[string]string `json:"errors"`
	Start         float64           `json:"start"`
	End           float64           `json:"end"`
	Duration      float64           `json:"duration"`
	Outcome       string            `json:"outcome"`
	VisualCount   int               `json:"visualCount"`
	RenderedCount int               `json:"renderedCount"`
}

func (e rawEntry) timing() models.PageTiming {
	return models.PageTiming{
		Start:         e.Start,
		End:           e.End,
		Duration:      e.Duration,
		Outcome:       models.PageOutcome(e.Outcome),
		VisualCount:   e.VisualCount,
		RenderedCount: e.RenderedCount,
	}
}

type rawScan struct {
	ReportLoadTime float64    `json:"reportLoadTime"`
	TotalDuration  float64    `json:"totalDuration"`
	Pages          []rawEntry `json:"pages"`
	Bookmarks      []rawEntry `json:"bookmarks"`
	FatalError     *string    `json:"fatalError"`
}

// Scanner walks every page of an embedded report and records visual errors.
type Scanner struct {
	endpoints config.Endpoints
	options   ScanOptions
	logger    *zap.Logger
}

// NewScanner creates a new scanner.
func NewScanner(endpoints config.Endpoints, options ScanOptions, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{endpoints: endpoints, options: options, logger: logger}
}

// Scan waits for the embedded report to load, then scans its pages one at a
// time. Visual errors are recorded in the result, not returned. The wait for
// the report to load is unbounded; callers bound it by closing the session.
func (s *Scanner) Scan(session *Session, descriptor models.ReportDescriptor) (models.ScanResult, error) {
	value, err := session.evaluate(scanScript, map[string]any{
		"pageTimeoutMs":  s.options.PageTimeout.Milliseconds(),
		"errorGraceMs":   s.options.ErrorGrace.Milliseconds(),
		"scanBookmarks":  s.options.ScanBookmarks,
		"bookmarkIdleMs": s.options.BookmarkIdle.Milliseconds(),
	})
	if err != nil {
		return models.ScanResult{}, fmt.Errorf("scan of report %s failed: %w", descriptor.ID, err)
	}

	var raw rawScan
	if err := decodeEvaluation(value, &raw); err != nil {
		return models.ScanResult{}, err
	}
	if raw.FatalError != nil {
		return models.ScanResult{}, fmt.Errorf("scan of report %s failed: %s", descriptor.ID, *raw.FatalError)
	}

	result := s.assemble(descriptor, raw)
	s.logger.Info("report_scanned",
		zap.String("report_id", descriptor.ID),
		zap.Int("pages", len(result.PageTimings)),
		zap.Int("failed_pages", len(result.PageErrors)),
		zap.Float64("load_ms", result.ReportLoadTime),
	)
	return result, nil
}

// assemble turns the raw browser output into a ScanResult. Only entries with
// errors land in the error maps and the screenshot list, in scan order.
func (s *Scanner) assemble(descriptor models.ReportDescriptor, raw rawScan) models.ScanResult {
	result := models.NewScanResult()
	result.ReportLoadTime = raw.ReportLoadTime
	result.TotalDuration = raw.TotalDuration

	for _, page := range raw.Pages {
		result.PageTimings[page.Name] = page.timing()
		s.logger.Debug("page_scanned",
			zap.String("report_id", descriptor.ID),
			zap.String("page", page.Name),
			zap.String("outcome", page.Outcome),
			zap.Int("visuals", page.VisualCount),
			zap.Int("rendered", page.RenderedCount),
			zap.Int("errors", len(page.Errors)),
		)
		if len(page.Errors) == 0 {
			continue
		}
		result.PageErrors[page.Name] = page.Errors
		result.PagesToScreenshot = append(result.PagesToScreenshot, models.ScreenshotTarget{
			Name:        page.Name,
			DisplayName: page.DisplayName,
			Kind:        models.TargetPage,
			ServiceURL:  s.endpoints.ServiceURL(descriptor.WorkspaceID, descriptor.ID, page.Name),
			EmbedURL:    s.endpoints.EmbedURL(descriptor.ID, page.Name),
		})
	}

	if len(raw.Bookmarks) == 0 {
		return result
	}

	result.BookmarkErrors = map[string]map[string]string{}
	result.BookmarkTimings = map[string]models.PageTiming{}
	for _, bookmark := range raw.Bookmarks {
		result.BookmarkTimings[bookmark.Name] = bookmark.timing()
		if len(bookmark.Errors) == 0 {
			continue
		}
		result.BookmarkErrors[bookmark.Name] = bookmark.Errors
		result.PagesToScreenshot = append(result.PagesToScreenshot, models.ScreenshotTarget{
			Name:        bookmark.Name,
			DisplayName: bookmark.DisplayName,
			Kind:        models.TargetBookmark,
			ServiceURL:  s.endpoints.BookmarkServiceURL(descriptor.WorkspaceID, descriptor.ID, bookmark.Name),
			EmbedURL:    s.endpoints.BookmarkEmbedURL(descriptor.ID, bookmark.Name),
		})
	}
	return result
}
