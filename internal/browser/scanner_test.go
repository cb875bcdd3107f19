package browser

import (
	"testing"

	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/stretchr/testify/require"
)

func TestScanner_AssembleKeepsScanOrder(t *testing.T) {
	endpoints := config.Endpoints{WebBaseURL: "https://app.powerbigov.us"}
	scanner := NewScanner(endpoints, ScanOptions{}, nil)
	descriptor := models.ReportDescriptor{ID: "r-9", WorkspaceID: "ws-9"}

	raw := rawScan{
		ReportLoadTime: 1200,
		TotalDuration:  5400,
		Pages: []rawEntry{
			{Name: "Zeta", Errors: map[string]string{"unknown": "Unknown Power BI error"}, Outcome: "error", VisualCount: 1},
			{Name: "Alpha", Errors: map[string]string{}, Outcome: "rendered", VisualCount: 2, RenderedCount: 2},
			{Name: "Mid Page", DisplayName: "Mid", Errors: map[string]string{"Chart": "x"}, Outcome: "error"},
		},
	}

	result := scanner.assemble(descriptor, raw)

	require.Equal(t, 1200.0, result.ReportLoadTime)
	require.Equal(t, 5400.0, result.TotalDuration)
	require.Len(t, result.PageTimings, 3)
	require.Len(t, result.PageErrors, 2)
	require.NotContains(t, result.PageErrors, "Alpha")
	require.Nil(t, result.BookmarkErrors)

	require.Len(t, result.PagesToScreenshot, 2)
	require.Equal(t, "Zeta", result.PagesToScreenshot[0].Name)
	require.Equal(t, "Mid Page", result.PagesToScreenshot[1].Name)
	require.Equal(t, "https://app.powerbigov.us/groups/ws-9/reports/r-9/Mid Page", result.PagesToScreenshot[1].ServiceURL)
	require.Equal(t, "https://app.powerbigov.us/reportEmbed?reportId=r-9&pageName=Mid Page", result.PagesToScreenshot[1].EmbedURL)
	require.Equal(t, models.OutcomeRendered, result.PageTimings["Alpha"].Outcome)
}

func TestScanner_AssembleBookmarks(t *testing.T) {
	endpoints := config.Endpoints{WebBaseURL: "https://app.powerbi.com"}
	scanner := NewScanner(endpoints, ScanOptions{}, nil)
	descriptor := models.ReportDescriptor{ID: "r-1", WorkspaceID: "ws-1"}

	raw := rawScan{
		Pages: []rawEntry{{Name: "P1", Errors: map[string]string{"Chart": "x"}}},
		Bookmarks: []rawEntry{
			{Name: "B1", Errors: map[string]string{}, Outcome: "idle"},
			{Name: "B2", DisplayName: "Second", Errors: map[string]string{"general": "failed"}, Outcome: "error"},
		},
	}

	result := scanner.assemble(descriptor, raw)

	require.Len(t, result.BookmarkTimings, 2)
	require.Equal(t, map[string]map[string]string{"B2": {"general": "failed"}}, result.BookmarkErrors)
	require.Len(t, result.PagesToScreenshot, 2)
	require.Equal(t, models.TargetPage, result.PagesToScreenshot[0].Kind)
	require.Equal(t, models.ScreenshotTarget{
		Name:        "B2",
		DisplayName: "Second",
		Kind:        models.TargetBookmark,
		ServiceURL:  "https://app.powerbi.com/groups/ws-1/reports/r-1?bookmarkGuid=B2",
		EmbedURL:    "https://app.powerbi.com/reportEmbed?reportId=r-1&bookmarkGuid=B2",
	}, result.PagesToScreenshot[1])
}

func TestDecodeEvaluation(t *testing.T) {
	value := map[string]any{
		"reportLoadTime": 12.5,
		"pages": []any{
			map[string]any{"name": "P1", "errors": map[string]any{"v": "m"}, "visualCount": float64(3)},
		},
		"fatalError": nil,
	}

	var raw rawScan
	require.NoError(t, decodeEvaluation(value, &raw))

	require.Equal(t, 12.5, raw.ReportLoadTime)
	require.Nil(t, raw.FatalError)
	require.Equal(t, 3, raw.Pages[0].VisualCount)
	require.Equal(t, "m", raw.Pages[0].Errors["v"])
}

func TestScanOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultRunConfig()
	cfg.ScanBookmarks = true

	options := ScanOptionsFromConfig(cfg)

	require.Equal(t, config.DefaultPageTimeout, options.PageTimeout)
	require.Equal(t, config.DefaultErrorGrace, options.ErrorGrace)
	require.Equal(t, config.DefaultBookmarkIdle, options.BookmarkIdle)
	require.True(t, options.ScanBookmarks)
}
