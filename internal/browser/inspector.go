package browser

import (
	"context"
	"fmt"

	"github.com/pbi-visual/visualcheck/internal/models"
	"go.uber.org/zap"
)

// Inspection is everything gathered for one report.
type Inspection struct {
	Scan        models.ScanResult
	Screenshots []models.Attachment
}

// Inspector runs the embed, scan and screenshot steps for one report in its
// own session.
type Inspector struct {
	driver   *Driver
	sdk      SDKSource
	scanner  *Scanner
	capturer *Capturer
	logger   *zap.Logger
}

// NewInspector creates a new inspector.
func NewInspector(driver *Driver, sdk SDKSource, scanner *Scanner, capturer *Capturer, logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{
		driver:   driver,
		sdk:      sdk,
		scanner:  scanner,
		capturer: capturer,
		logger:   logger,
	}
}

type inspectOutcome struct {
	inspection *Inspection
	err        error
}

// Inspect embeds the report with token, scans it and screenshots failing
// targets. When ctx ends first the session is closed, which aborts any
// evaluation still running, and ErrReportTimeout is returned.
func (i *Inspector) Inspect(ctx context.Context, descriptor models.ReportDescriptor, token models.EmbedToken) (*Inspection, error) {
	session, err := i.driver.OpenSession(i.sdk)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	done := make(chan inspectOutcome, 1)
	go func() {
		inspection, err := i.run(session, descriptor, token)
		done <- inspectOutcome{inspection: inspection, err: err}
	}()

	select {
	case outcome := <-done:
		return outcome.inspection, outcome.err
	case <-ctx.Done():
		if closeErr := session.Close(); closeErr != nil {
			i.logger.Warn("session_close_failed", zap.String("report_id", descriptor.ID), zap.Error(closeErr))
		}
		return nil, fmt.Errorf("%w: report %s: %v", models.ErrReportTimeout, descriptor.ID, ctx.Err())
	}
}

func (i *Inspector) run(session *Session, descriptor models.ReportDescriptor, token models.EmbedToken) (*Inspection, error) {
	if err := session.Embed(EmbedRequest{
		ReportID:    descriptor.ID,
		EmbedURL:    descriptor.EmbedURL,
		AccessToken: token.Token,
	}); err != nil {
		return nil, err
	}

	scan, err := i.scanner.Scan(session, descriptor)
	if err != nil {
		return nil, err
	}

	inspection := &Inspection{Scan: scan}
	if len(scan.PagesToScreenshot) > 0 && i.capturer != nil {
		inspection.Screenshots = i.capturer.Capture(session, descriptor.ID, scan.PagesToScreenshot)
	}
	return inspection, nil
}
