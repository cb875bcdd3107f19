package browser

import (
	"fmt"
	"time"

	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// AttachmentStore keeps screenshot bytes for a report.
type AttachmentStore interface {
	Attach(reportID string, target models.ScreenshotTarget, png []byte) (models.Attachment, error)
}

// Capturer re-activates failing pages and screenshots the report container.
type Capturer struct {
	store  AttachmentStore
	delay  time.Duration
	logger *zap.Logger
}

// NewCapturer creates a new capturer. delay is how long to wait after
// activation before taking the screenshot.
func NewCapturer(store AttachmentStore, delay time.Duration, logger *zap.Logger) *Capturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capturer{store: store, delay: delay, logger: logger}
}

// Capture screenshots each target in order. A target that cannot be found or
// captured is logged and skipped; it never fails the report.
func (c *Capturer) Capture(session *Session, reportID string, targets []models.ScreenshotTarget) []models.Attachment {
	var attachments []models.Attachment
	for _, target := range targets {
		attachment, err := c.captureOne(session, reportID, target)
		if err != nil {
			c.logger.Warn("screenshot_skipped",
				zap.String("report_id", reportID),
				zap.String("target", target.Name),
				zap.String("kind", string(target.Kind)),
				zap.Error(err),
			)
			continue
		}
		c.logger.Info("screenshot_saved",
			zap.String("report_id", reportID),
			zap.String("target", target.Name),
			zap.String("path", attachment.Path),
		)
		attachments = append(attachments, attachment)
	}
	return attachments
}

func (c *Capturer) captureOne(session *Session, reportID string, target models.ScreenshotTarget) (models.Attachment, error) {
	value, err := session.evaluate(activateScript, map[string]any{
		"name": target.Name,
		"kind": string(target.Kind),
	})
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to activate %s: %w", target.Name, err)
	}
	found, _ := value.(bool)
	if !found {
		return models.Attachment{}, fmt.Errorf("%w: %s", models.ErrPageNotFound, target.Name)
	}

	if c.delay > 0 {
		session.page.WaitForTimeout(float64(c.delay.Milliseconds()))
	}

	png, err := session.page.Locator("#" + ContainerID).Screenshot(playwright.LocatorScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to capture %s: %w", target.Name, err)
	}

	return c.store.Attach(reportID, target, png)
}
