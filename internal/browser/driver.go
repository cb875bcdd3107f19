package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Viewport and container dimensions used for every report.
const (
	ViewportWidth   = 1280
	ViewportHeight  = 800
	ContainerWidth  = 1200
	ContainerHeight = 800
	ContainerID     = "report-container"
)

// DriverOptions configures the browser launch.
type DriverOptions struct {
	Headless bool
}

// Driver owns one playwright driver process and one browser for a run.
// Sessions opened from it are isolated browser contexts.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *zap.Logger
}

// LaunchDriver starts playwright and launches chromium.
func LaunchDriver(opts DriverOptions, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	logger.Info("browser_launched", zap.String("version", browser.Version()), zap.Bool("headless", opts.Headless))
	return NewDriver(pw, browser, logger), nil
}

// NewDriver wraps an already running browser. pw may be nil when the caller
// owns the playwright lifecycle.
func NewDriver(pw *playwright.Playwright, browser playwright.Browser, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{pw: pw, browser: browser, logger: logger}
}

// Close shuts the browser and the playwright driver down.
func (d *Driver) Close() error {
	var firstErr error
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close browser: %w", err)
		}
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	return firstErr
}

// InstallBrowsers downloads the playwright driver and chromium.
func InstallBrowsers() error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	})
}
