package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/spf13/afero"
)

// ResultRepository persists per-report results and run artifacts
type ResultRepository struct {
	fs  afero.Fs
	dir string
}

// NewResultRepository creates a new result repository rooted at dir
func NewResultRepository(fs afero.Fs, dir string) *ResultRepository {
	return &ResultRepository{
		fs:  fs,
		dir: dir,
	}
}

// Dir returns the results directory
func (r *ResultRepository) Dir() string {
	return r.dir
}

// Fs returns the filesystem results are written to
func (r *ResultRepository) Fs() afero.Fs {
	return r.fs
}

// Save writes {reportId}_result.json. An existing file for the same report
// is replaced.
func (r *ResultRepository) Save(result models.PersistedResult) (string, error) {
	if strings.TrimSpace(result.ReportID) == "" {
		return "", fmt.Errorf("cannot save result without report id")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result for %s: %w", result.ReportID, err)
	}

	target := filepath.Join(r.dir, models.ResultFileName(result.ReportID))
	if err := writeFileAtomic(r.fs, target, data); err != nil {
		return "", err
	}
	return target, nil
}

// Load reads the result of one report
func (r *ResultRepository) Load(reportID string) (models.PersistedResult, error) {
	return r.read(filepath.Join(r.dir, models.ResultFileName(reportID)))
}

// List reads every per-report result in the directory, sorted by report id
func (r *ResultRepository) List() ([]models.PersistedResult, error) {
	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list results in %s: %w", r.dir, err)
	}

	var results []models.PersistedResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), models.ResultFileSuffix) {
			continue
		}
		result, err := r.read(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ReportID < results[j].ReportID
	})
	return results, nil
}

// SaveSummary writes the aggregate document for a run
func (r *ResultRepository) SaveSummary(name string, summary models.RunSummary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}
	return r.WriteArtifact(name, data)
}

// WriteArtifact writes a run-level file such as the HTML report
func (r *ResultRepository) WriteArtifact(name string, data []byte) (string, error) {
	target := filepath.Join(r.dir, name)
	if err := writeFileAtomic(r.fs, target, data); err != nil {
		return "", err
	}
	return target, nil
}

// ReadArtifact returns the contents of a run-level file
func (r *ResultRepository) ReadArtifact(name string) ([]byte, error) {
	data, err := afero.ReadFile(r.fs, filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (r *ResultRepository) read(file string) (models.PersistedResult, error) {
	data, err := afero.ReadFile(r.fs, file)
	if err != nil {
		return models.PersistedResult{}, fmt.Errorf("failed to read %s: %w", file, err)
	}
	var result models.PersistedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return models.PersistedResult{}, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	return result, nil
}
