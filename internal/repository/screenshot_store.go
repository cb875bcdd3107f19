package repository

import (
	"fmt"
	"path/filepath"

	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/spf13/afero"
)

// ScreenshotStore keeps screenshot attachments under {dir}/{reportId}/
type ScreenshotStore struct {
	fs  afero.Fs
	dir string
}

// NewScreenshotStore creates a new screenshot store rooted at dir
func NewScreenshotStore(fs afero.Fs, dir string) *ScreenshotStore {
	return &ScreenshotStore{
		fs:  fs,
		dir: dir,
	}
}

// Attach writes a PNG for target and returns its attachment record. The
// path is relative to the store root.
func (s *ScreenshotStore) Attach(reportID string, target models.ScreenshotTarget, png []byte) (models.Attachment, error) {
	name := models.ScreenshotName(target)
	rel := filepath.Join(reportID, name+".png")
	full := filepath.Join(s.dir, rel)

	if err := s.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return models.Attachment{}, fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, full, png, 0o644); err != nil {
		return models.Attachment{}, fmt.Errorf("failed to write screenshot %s: %w", full, err)
	}

	return models.Attachment{
		Name:        name,
		Target:      target.Name,
		Path:        filepath.ToSlash(rel),
		ContentType: "image/png",
	}, nil
}

// Read returns the bytes of a previously attached screenshot
func (s *ScreenshotStore) Read(attachment models.Attachment) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, filepath.FromSlash(attachment.Path)))
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot %s: %w", attachment.Path, err)
	}
	return data, nil
}
