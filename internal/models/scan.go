package models

import (
	"fmt"
	"sort"
	"strings"
)

// PageOutcome is how the wait for a page (or bookmark) ended.
type PageOutcome string

const (
	OutcomeRendered PageOutcome = "rendered"
	OutcomeError    PageOutcome = "error"
	OutcomeTimeout  PageOutcome = "timeout"
	OutcomeIdle     PageOutcome = "idle"
)

// TargetKind distinguishes report pages from bookmarks among screenshot targets.
type TargetKind string

const (
	TargetPage     TargetKind = "page"
	TargetBookmark TargetKind = "bookmark"
)

// PageTiming records when a page scan started and ended, in milliseconds
// relative to the browser's performance clock.
type PageTiming struct {
	Start         float64     `json:"start"`
	End           float64     `json:"end"`
	Duration      float64     `json:"duration"`
	Outcome       PageOutcome `json:"outcome,omitempty"`
	VisualCount   int         `json:"visualCount"`
	RenderedCount int         `json:"renderedCount"`
}

// ScreenshotTarget is a page or bookmark that recorded at least one error.
type ScreenshotTarget struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"displayName,omitempty"`
	Kind        TargetKind `json:"kind"`
	ServiceURL  string     `json:"serviceUrl"`
	EmbedURL    string     `json:"embedUrl"`
}

// ScanResult aggregates one report's scan. PageErrors only holds pages that
// recorded errors; PageTimings holds every scanned page.
type ScanResult struct {
	PageErrors        map[string]map[string]string `json:"pageErrors"`
	PagesToScreenshot []ScreenshotTarget           `json:"pagesToScreenshot"`
	PageTimings       map[string]PageTiming        `json:"pageTimings"`
	BookmarkErrors    map[string]map[string]string `json:"bookmarkErrors,omitempty"`
	BookmarkTimings   map[string]PageTiming        `json:"bookmarkTimings,omitempty"`
	ReportLoadTime    float64                      `json:"reportLoadTime"`
	TotalDuration     float64                      `json:"totalDuration"`
}

// NewScanResult returns a ScanResult with empty, non-nil collections so that
// an error-free report serializes as {} and [] rather than null.
func NewScanResult() ScanResult {
	return ScanResult{
		PageErrors:        map[string]map[string]string{},
		PagesToScreenshot: []ScreenshotTarget{},
		PageTimings:       map[string]PageTiming{},
	}
}

// HasErrors reports whether any page or bookmark recorded a visual error.
func (r ScanResult) HasErrors() bool {
	for _, errs := range r.PageErrors {
		if len(errs) > 0 {
			return true
		}
	}
	for _, errs := range r.BookmarkErrors {
		if len(errs) > 0 {
			return true
		}
	}
	return false
}

// FailedPages returns the names of pages with errors, sorted.
func (r ScanResult) FailedPages() []string {
	return keysWithErrors(r.PageErrors)
}

// FailedBookmarks returns the names of bookmarks with errors, sorted.
func (r ScanResult) FailedBookmarks() []string {
	return keysWithErrors(r.BookmarkErrors)
}

// PassedPages returns the names of scanned pages without errors, sorted.
func (r ScanResult) PassedPages() []string {
	var passed []string
	for name := range r.PageTimings {
		if len(r.PageErrors[name]) == 0 {
			passed = append(passed, name)
		}
	}
	sort.Strings(passed)
	return passed
}

// Err returns an ErrRender naming the failed pages and bookmarks, or nil
// when every visual rendered.
func (r ScanResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	failed := append(r.FailedPages(), r.FailedBookmarks()...)
	return fmt.Errorf("%w on %s", ErrRender, strings.Join(failed, ", "))
}

func keysWithErrors(errs map[string]map[string]string) []string {
	var names []string
	for name, visuals := range errs {
		if len(visuals) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
