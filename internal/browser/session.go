package browser

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// SDKSource says where the report SDK script comes from. Exactly one of URL
// or Content is used; Content wins when both are set.
type SDKSource struct {
	URL     string
	Content string
}

// Session is one report's isolated browser context and page. After Embed it
// holds the handle to the embedded report, which the scan and screenshot
// steps use directly.
type Session struct {
	context playwright.BrowserContext
	page    playwright.Page
	handle  playwright.JSHandle
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// OpenSession creates a fresh browser context, navigates to a blank page and
// loads the report SDK into it.
func (d *Driver) OpenSession(sdk SDKSource) (*Session, error) {
	bctx, err := d.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: ViewportWidth, Height: ViewportHeight},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	session := &Session{context: bctx, logger: d.logger}

	page, err := bctx.NewPage()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	session.page = page

	if _, err := page.Goto("about:blank"); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to open blank page: %w", err)
	}

	tag := playwright.PageAddScriptTagOptions{}
	switch {
	case sdk.Content != "":
		tag.Content = playwright.String(sdk.Content)
	case sdk.URL != "":
		tag.URL = playwright.String(sdk.URL)
	default:
		session.Close()
		return nil, fmt.Errorf("%w: no report SDK source configured", models.ErrConfig)
	}
	if _, err := page.AddScriptTag(tag); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to load report SDK: %w", err)
	}

	return session, nil
}

// EmbedRequest carries what the SDK needs to embed one report.
type EmbedRequest struct {
	ReportID    string
	EmbedURL    string
	AccessToken string
}

// Embed embeds the report into a new container and keeps the returned
// session handle. It does not wait for the report to load.
func (s *Session) Embed(req EmbedRequest) error {
	handle, err := s.page.EvaluateHandle(embedScript, map[string]any{
		"containerId": ContainerID,
		"width":       ContainerWidth,
		"height":      ContainerHeight,
		"reportId":    req.ReportID,
		"embedUrl":    req.EmbedURL,
		"accessToken": req.AccessToken,
	})
	if err != nil {
		return fmt.Errorf("failed to embed report %s: %w", req.ReportID, err)
	}
	if s.handle != nil {
		_ = s.handle.Dispose()
	}
	s.handle = handle
	return nil
}

// Page exposes the underlying page.
func (s *Session) Page() playwright.Page {
	return s.page
}

func (s *Session) evaluate(script string, arg any) (any, error) {
	if s.handle == nil {
		return nil, errors.New("report is not embedded")
	}
	return s.handle.Evaluate(script, arg)
}

// Close closes the browser context. Any evaluation still in flight fails.
// It is safe to call more than once and from another goroutine.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.context != nil {
			s.closeErr = s.context.Close()
		}
	})
	return s.closeErr
}
