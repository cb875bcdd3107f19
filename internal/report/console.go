package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pbi-visual/visualcheck/internal/models"
)

// PrintSummary writes the human-readable end of run summary to w.
func PrintSummary(w io.Writer, run models.RunSummary) {
	s := run.Summary
	rule := strings.Repeat("=", 60)

	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  SUMMARY: %d reports | %d pages | ", s.TotalReports, s.TotalPages)
	pass.Fprintf(w, "%d passed", s.PassedPages)
	fmt.Fprint(w, " | ")
	fail.Fprintf(w, "%d failed", s.FailedPages)
	fmt.Fprintf(w, " | %.2f%% pass rate\n", s.PassRate)
	if s.TotalBookmarks > 0 {
		fmt.Fprintf(w, "  BOOKMARKS: %d scanned | %d failed\n", s.TotalBookmarks, s.FailedBookmarks)
	}
	fmt.Fprintln(w, rule)

	for _, result := range run.Reports {
		if !result.Failed() {
			continue
		}
		fail.Fprint(w, "  FAIL ")
		fmt.Fprintf(w, "%s (%s)\n", result.ReportName, result.ReportID)
		if result.Error != "" {
			fmt.Fprintf(w, "      error: %s\n", result.Error)
		}
		for _, target := range result.PagesToScreenshot {
			errs := result.PageErrors[target.Name]
			label := target.Name
			if target.Kind == models.TargetBookmark {
				errs = result.BookmarkErrors[target.Name]
				label = "bookmark " + target.Name
			}
			fmt.Fprintf(w, "      x %s (%d error(s))\n", label, len(errs))
			dim.Fprintf(w, "        %s\n", target.ServiceURL)
		}
	}

	if s.FailedReports == 0 {
		pass.Fprintln(w, "  All pages passed visual validation")
	}
}
