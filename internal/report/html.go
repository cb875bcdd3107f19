package report

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/pbi-visual/visualcheck/internal/models"
)

//go:embed templates/report.html
var templateFS embed.FS

// ScreenshotReader loads attachment bytes for embedding.
type ScreenshotReader interface {
	Read(attachment models.Attachment) ([]byte, error)
}

// HTMLRenderer renders a standalone HTML report with screenshots inlined.
type HTMLRenderer struct {
	template    *template.Template
	screenshots ScreenshotReader
}

// NewHTMLRenderer parses the embedded report template. screenshots may be
// nil, in which case no images are embedded.
func NewHTMLRenderer(screenshots ScreenshotReader) (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return nil, err
	}
	return &HTMLRenderer{template: tmpl, screenshots: screenshots}, nil
}

type errorRow struct {
	Visual  string
	Message string
}

type htmlEntry struct {
	Title      string
	IsBookmark bool
	ServiceURL string
	Duration   float64
	Errors     []errorRow
	Screenshot template.URL
}

type htmlReport struct {
	Name    string
	Meta    string
	Error   string
	Entries []htmlEntry
}

type htmlPage struct {
	Environment     string
	RunID           string
	GeneratedAt     string
	Summary         models.Summary
	PassClass       string
	BookmarksPassed int
	Reports         []htmlReport
}

// Render writes the HTML report for run to w.
func (r *HTMLRenderer) Render(w io.Writer, run models.RunSummary) error {
	page := htmlPage{
		Environment:     run.Environment,
		RunID:           run.RunID,
		GeneratedAt:     run.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Summary:         run.Summary,
		PassClass:       "fail",
		BookmarksPassed: run.Summary.TotalBookmarks - run.Summary.FailedBookmarks,
	}
	if run.Summary.FailedReports == 0 {
		page.PassClass = "pass"
	}

	for _, result := range run.Reports {
		if !result.Failed() {
			continue
		}
		page.Reports = append(page.Reports, r.reportSection(result))
	}

	if err := r.template.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

func (r *HTMLRenderer) reportSection(result models.PersistedResult) htmlReport {
	shots := make(map[string]models.Attachment, len(result.Screenshots))
	for _, attachment := range result.Screenshots {
		shots[attachment.Name] = attachment
	}

	section := htmlReport{Name: result.ReportName, Error: result.Error}
	var failedPages, failedBookmarks int
	for _, target := range result.PagesToScreenshot {
		entry := htmlEntry{ServiceURL: target.ServiceURL}
		var errs map[string]string
		if target.Kind == models.TargetBookmark {
			failedBookmarks++
			entry.IsBookmark = true
			entry.Title = "Bookmark: " + firstNonEmpty(target.DisplayName, target.Name)
			entry.Duration = result.BookmarkTimings[target.Name].Duration
			errs = result.BookmarkErrors[target.Name]
		} else {
			failedPages++
			entry.Title = firstNonEmpty(target.DisplayName, target.Name)
			entry.Duration = result.PageTimings[target.Name].Duration
			errs = result.PageErrors[target.Name]
		}
		entry.Errors = sortedErrors(errs)

		if attachment, ok := shots[models.ScreenshotName(target)]; ok && r.screenshots != nil {
			if data, err := r.screenshots.Read(attachment); err == nil {
				entry.Screenshot = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(data))
			}
		}
		section.Entries = append(section.Entries, entry)
	}

	meta := []string{"Report ID: " + result.ReportID}
	if failedPages > 0 {
		meta = append(meta, plural(failedPages, "failed page"))
	}
	if failedBookmarks > 0 {
		meta = append(meta, plural(failedBookmarks, "failed bookmark"))
	}
	section.Meta = strings.Join(meta, " | ")
	return section
}

func sortedErrors(errs map[string]string) []errorRow {
	rows := make([]errorRow, 0, len(errs))
	for visual, message := range errs {
		rows = append(rows, errorRow{Visual: visual, Message: message})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Visual < rows[j].Visual })
	return rows
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
