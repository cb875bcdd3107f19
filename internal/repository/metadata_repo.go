package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/spf13/afero"
)

// WorkspaceFileName is the descriptor file written by a metadata refresh.
const WorkspaceFileName = "reports_datasets.json"

// WorkspaceMetadata is the envelope written by a metadata refresh.
type WorkspaceMetadata struct {
	WorkspaceID    string                    `json:"workspaceId"`
	GeneratedAtUTC string                    `json:"generatedAtUtc"`
	ReportCount    int                       `json:"reportCount"`
	Reports        []models.ReportDescriptor `json:"reports"`
}

// MetadataRepository reads and writes report descriptors on a filesystem
type MetadataRepository struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// NewMetadataRepository creates a new metadata repository rooted at dir
func NewMetadataRepository(fs afero.Fs, dir string) *MetadataRepository {
	return &MetadataRepository{
		fs:  fs,
		dir: dir,
		now: time.Now,
	}
}

// Dir returns the metadata directory
func (r *MetadataRepository) Dir() string {
	return r.dir
}

// LoadAll reads every descriptor under the metadata directory, validates
// them and returns them sorted by id
func (r *MetadataRepository) LoadAll() ([]models.ReportDescriptor, error) {
	exists, err := afero.DirExists(r.fs, r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read metadata directory %s: %v", models.ErrConfig, r.dir, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: metadata directory %s does not exist", models.ErrConfig, r.dir)
	}

	descriptors, err := r.readDir()
	if err != nil {
		return nil, err
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w in %s", models.ErrNoReports, r.dir)
	}

	seen := make(map[string]string, len(descriptors))
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if other, ok := seen[d.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate report id %s (%s and %s)", models.ErrConfig, d.ID, other, d.Name)
		}
		seen[d.ID] = d.Name
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].ID < descriptors[j].ID
	})
	return descriptors, nil
}

// LoadExisting returns whatever descriptors are currently on disk without
// validating them. A missing directory yields no descriptors.
func (r *MetadataRepository) LoadExisting() ([]models.ReportDescriptor, error) {
	exists, err := afero.DirExists(r.fs, r.dir)
	if err != nil || !exists {
		return nil, nil
	}
	return r.readDir()
}

// SaveWorkspace writes the refresh envelope atomically and returns its path
func (r *MetadataRepository) SaveWorkspace(workspaceID string, reports []models.ReportDescriptor) (string, error) {
	if reports == nil {
		reports = []models.ReportDescriptor{}
	}
	envelope := WorkspaceMetadata{
		WorkspaceID:    workspaceID,
		GeneratedAtUTC: r.now().UTC().Format(time.RFC3339),
		ReportCount:    len(reports),
		Reports:        reports,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	target := filepath.Join(r.dir, WorkspaceFileName)
	if err := writeFileAtomic(r.fs, target, data); err != nil {
		return "", err
	}
	return target, nil
}

func (r *MetadataRepository) readDir() ([]models.ReportDescriptor, error) {
	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot list metadata directory %s: %v", models.ErrConfig, r.dir, err)
	}

	var descriptors []models.ReportDescriptor
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		file := filepath.Join(r.dir, entry.Name())
		data, err := afero.ReadFile(r.fs, file)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s: %v", models.ErrConfig, file, err)
		}
		parsed, err := decodeDescriptors(data)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed metadata file %s: %v", models.ErrConfig, file, err)
		}
		descriptors = append(descriptors, parsed...)
	}
	return descriptors, nil
}

// decodeDescriptors accepts a single descriptor, an array of descriptors or
// a workspace envelope.
func decodeDescriptors(data []byte) ([]models.ReportDescriptor, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("file is empty")
	}

	switch trimmed[0] {
	case '[':
		var list []models.ReportDescriptor
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, err
		}
		if _, ok := probe["reports"]; ok {
			var envelope WorkspaceMetadata
			if err := json.Unmarshal(trimmed, &envelope); err != nil {
				return nil, err
			}
			for i := range envelope.Reports {
				if envelope.Reports[i].WorkspaceID == "" {
					envelope.Reports[i].WorkspaceID = envelope.WorkspaceID
				}
			}
			return envelope.Reports, nil
		}
		var single models.ReportDescriptor
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, err
		}
		return []models.ReportDescriptor{single}, nil
	default:
		return nil, fmt.Errorf("unexpected leading character %q", trimmed[0])
	}
}

// writeFileAtomic writes data next to target and renames it into place.
func writeFileAtomic(fs afero.Fs, target string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}
	tmp := target + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, target); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", target, err)
	}
	return nil
}
