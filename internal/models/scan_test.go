package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestScanResult_HasErrors(t *testing.T) {
	tests := []struct {
		name   string
		result ScanResult
		want   bool
	}{
		{
			name:   "empty result",
			result: NewScanResult(),
			want:   false,
		},
		{
			name: "page with empty error map",
			result: ScanResult{
				PageErrors: map[string]map[string]string{"Overview": {}},
			},
			want: false,
		},
		{
			name: "page error",
			result: ScanResult{
				PageErrors: map[string]map[string]string{"Overview": {"Chart1": "Query failed"}},
			},
			want: true,
		},
		{
			name: "bookmark error only",
			result: ScanResult{
				BookmarkErrors: map[string]map[string]string{"Q1": {"general": "apply failed"}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.HasErrors(); got != tt.want {
				t.Errorf("HasErrors() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanResult_Err(t *testing.T) {
	result := NewScanResult()
	if err := result.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}

	result.PageErrors["ReportSection2"] = map[string]string{"Chart1": "Query failed"}
	result.BookmarkErrors = map[string]map[string]string{"Q1": {"general": "apply failed"}}

	err := result.Err()
	if !errors.Is(err, ErrRender) {
		t.Fatalf("Expected ErrRender, got %v", err)
	}
	if !strings.Contains(err.Error(), "ReportSection2, Q1") {
		t.Errorf("Expected failed names in error, got %q", err.Error())
	}
}

func TestScanResult_PageClassification(t *testing.T) {
	result := NewScanResult()
	result.PageTimings["ReportSection2"] = PageTiming{Outcome: OutcomeError}
	result.PageTimings["ReportSection1"] = PageTiming{Outcome: OutcomeRendered}
	result.PageTimings["ReportSection3"] = PageTiming{Outcome: OutcomeTimeout}
	result.PageErrors["ReportSection2"] = map[string]string{"Chart1": "Query failed"}

	if got, want := result.FailedPages(), []string{"ReportSection2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FailedPages() = %v, want %v", got, want)
	}
	if got, want := result.PassedPages(), []string{"ReportSection1", "ReportSection3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PassedPages() = %v, want %v", got, want)
	}
}

func TestNewScanResult_SerializesEmptyCollections(t *testing.T) {
	data, err := json.Marshal(NewScanResult())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got := string(data)
	for _, fragment := range []string{`"pageErrors":{}`, `"pagesToScreenshot":[]`, `"pageTimings":{}`} {
		if !strings.Contains(got, fragment) {
			t.Errorf("Expected %s in %s", fragment, got)
		}
	}
	if strings.Contains(got, "bookmark") {
		t.Errorf("Expected bookmark fields to be omitted, got %s", got)
	}
}

func TestPersistedResult_FlattensScanFields(t *testing.T) {
	scan := NewScanResult()
	scan.PageErrors["ReportSection1"] = map[string]string{"Chart1": "Query failed"}
	scan.ReportLoadTime = 1234.5

	result := NewPersistedResult(validDescriptor(), "prod", "run-1", scan)
	result.NodeDuration = 5000

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"reportId", "reportName", "environment", "runId", "pageErrors", "pageTimings", "reportLoadTime", "nodeDuration"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected top-level key %q in %s", key, data)
		}
	}
	if !result.Failed() {
		t.Error("Expected result with page errors to be failed")
	}
}

func TestPersistedResult_Failed(t *testing.T) {
	tests := []struct {
		name   string
		result PersistedResult
		want   bool
	}{
		{name: "clean", result: PersistedResult{ScanResult: NewScanResult()}, want: false},
		{name: "unit error", result: PersistedResult{ScanResult: NewScanResult(), Error: "token"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScreenshotName(t *testing.T) {
	tests := []struct {
		target ScreenshotTarget
		want   string
	}{
		{target: ScreenshotTarget{Name: "ReportSection1", Kind: TargetPage}, want: "ReportSection1-screenshot"},
		{target: ScreenshotTarget{Name: "Bookmark42", Kind: TargetBookmark}, want: "bookmark_Bookmark42-screenshot"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ScreenshotName(tt.target); got != tt.want {
				t.Errorf("ScreenshotName() = %q, want %q", got, tt.want)
			}
		})
	}
}
