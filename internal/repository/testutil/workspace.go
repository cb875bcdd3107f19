package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/spf13/afero"
)

// TestWorkspace is an isolated filesystem holding metadata and results
type TestWorkspace struct {
	Fs          afero.Fs
	MetadataDir string
	ResultsDir  string
	root        string
}

// SetupTestWorkspace creates an in-memory workspace. Setting
// VISUALCHECK_TEST_OSFS=1 backs it with a temporary directory instead.
func SetupTestWorkspace(t *testing.T) *TestWorkspace {
	t.Helper()

	ws := &TestWorkspace{
		MetadataDir: filepath.Join("metadata", "reports"),
		ResultsDir:  "test-results",
	}

	if getEnvOrDefault("VISUALCHECK_TEST_OSFS", "") != "" {
		ws.root = t.TempDir()
		ws.Fs = afero.NewBasePathFs(afero.NewOsFs(), ws.root)
	} else {
		ws.Fs = afero.NewMemMapFs()
	}

	if err := ws.Fs.MkdirAll(ws.MetadataDir, 0o755); err != nil {
		t.Fatalf("Failed to create metadata directory: %v", err)
	}
	return ws
}

// WriteMetadata writes v as JSON into the metadata directory
func (ws *TestWorkspace) WriteMetadata(t *testing.T, name string, v any) string {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal metadata %s: %v", name, err)
	}
	return ws.WriteRawMetadata(t, name, data)
}

// WriteRawMetadata writes data verbatim into the metadata directory
func (ws *TestWorkspace) WriteRawMetadata(t *testing.T, name string, data []byte) string {
	t.Helper()

	file := filepath.Join(ws.MetadataDir, name)
	if err := afero.WriteFile(ws.Fs, file, data, 0o644); err != nil {
		t.Fatalf("Failed to write metadata %s: %v", name, err)
	}
	return file
}

// Descriptor returns a valid descriptor with the given id
func Descriptor(id string) models.ReportDescriptor {
	return models.ReportDescriptor{
		ID:          id,
		Name:        "Report " + id,
		EmbedURL:    "https://app.powerbi.com/reportEmbed?reportId=" + id,
		WorkspaceID: "ws-1",
		DatasetID:   "ds-" + id,
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
