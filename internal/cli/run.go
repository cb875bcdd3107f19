package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pbi-visual/visualcheck/internal/browser"
	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/pbi-visual/visualcheck/internal/report"
	"github.com/pbi-visual/visualcheck/internal/repository"
	"github.com/pbi-visual/visualcheck/internal/services"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrReportsFailed is returned by Run when at least one report failed,
// either with visual errors or because its unit errored.
var ErrReportsFailed = errors.New("visual validation failed")

// ReportInspector embeds, scans and screenshots a single report.
type ReportInspector interface {
	Inspect(ctx context.Context, descriptor models.ReportDescriptor, token models.EmbedToken) (*browser.Inspection, error)
}

// LaunchRequest is everything a BrowserLauncher needs to build an inspector.
type LaunchRequest struct {
	Config      config.RunConfig
	Endpoints   config.Endpoints
	Screenshots browser.AttachmentStore
	Logger      *zap.Logger
}

// BrowserLauncher starts the browser for a run and returns the inspector
// along with a function that shuts the browser down.
type BrowserLauncher func(req LaunchRequest) (ReportInspector, func() error, error)

// LaunchBrowser is the playwright-backed BrowserLauncher.
func LaunchBrowser(req LaunchRequest) (ReportInspector, func() error, error) {
	driver, err := browser.LaunchDriver(browser.DriverOptions{Headless: req.Config.Headless}, req.Logger)
	if err != nil {
		return nil, nil, err
	}

	scanner := browser.NewScanner(req.Endpoints, browser.ScanOptionsFromConfig(req.Config), req.Logger)
	capturer := browser.NewCapturer(req.Screenshots, req.Config.ScreenshotDelay, req.Logger)
	inspector := browser.NewInspector(driver, browser.SDKSource{URL: req.Config.SDKURL}, scanner, capturer, req.Logger)
	return inspector, driver.Close, nil
}

// RunDependencies holds all dependencies needed for a run. Credentials and
// Reporting are built from the environment when nil.
type RunDependencies struct {
	Config      config.RunConfig
	Getenv      func(string) string
	Fs          afero.Fs
	HTTPClient  *http.Client
	Logger      *zap.Logger
	Out         io.Writer
	Launch      BrowserLauncher
	Credentials services.CredentialProvider
	Reporting   services.ReportingClient
	Now         func() time.Time
	NewRunID    func() string
}

// Runner scans every report in the metadata directory, each in its own
// browser context, and writes per-report results plus a run summary.
type Runner struct {
	deps   RunDependencies
	logger *zap.Logger
}

// NewRunner creates a new runner, filling unset dependencies with defaults.
func NewRunner(deps RunDependencies) *Runner {
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Launch == nil {
		deps.Launch = LaunchBrowser
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewRunID == nil {
		deps.NewRunID = func() string { return uuid.NewString() }
	}
	return &Runner{deps: deps, logger: deps.Logger}
}

// runEnv is the read-only state shared by every report unit of a run.
type runEnv struct {
	environment string
	runID       string
	accessToken string
	tokens      services.EmbedTokenService
	inspector   ReportInspector
	results     *repository.ResultRepository
}

// Run executes the run. Configuration, metadata and authentication problems
// abort before the browser starts. Per-report failures are recorded in the
// results and reported through ErrReportsFailed once every report finished.
func (r *Runner) Run(ctx context.Context) (*models.RunSummary, error) {
	cfg := r.deps.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds, err := config.LoadCredentialsConfig(r.deps.Getenv)
	if err != nil {
		return nil, err
	}
	endpoints, err := config.LoadEndpoints(creds.Environment, r.deps.Getenv)
	if err != nil {
		return nil, err
	}

	descriptors, err := repository.NewMetadataRepository(r.deps.Fs, cfg.MetadataDir).LoadAll()
	if err != nil {
		return nil, err
	}
	r.logger.Info("reports_loaded",
		zap.Int("count", len(descriptors)),
		zap.String("environment", creds.Environment),
		zap.String("metadata_dir", cfg.MetadataDir),
	)

	credentials := r.deps.Credentials
	if credentials == nil {
		credentials = services.NewCredentialProvider(creds, endpoints, r.deps.HTTPClient, r.logger)
	}
	accessToken, err := credentials.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	client := r.deps.Reporting
	if client == nil {
		client = services.NewReportingClient(endpoints, r.deps.HTTPClient, r.logger)
	}

	results := repository.NewResultRepository(r.deps.Fs, cfg.ResultsDir)
	screenshots := repository.NewScreenshotStore(r.deps.Fs, cfg.ResultsDir)

	inspector, closeBrowser, err := r.deps.Launch(LaunchRequest{
		Config:      cfg,
		Endpoints:   endpoints,
		Screenshots: screenshots,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := closeBrowser(); err != nil {
			r.logger.Warn("browser_close_failed", zap.Error(err))
		}
	}()

	env := runEnv{
		environment: creds.Environment,
		runID:       r.deps.NewRunID(),
		accessToken: accessToken,
		tokens:      services.NewEmbedTokenService(client, creds, r.logger),
		inspector:   inspector,
		results:     results,
	}

	outcomes := make([]models.PersistedResult, len(descriptors))
	var g errgroup.Group
	g.SetLimit(cfg.Parallelism)
	for i, descriptor := range descriptors {
		g.Go(func() error {
			outcomes[i] = r.runReport(ctx, env, descriptor)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := report.Summarize(env.environment, env.runID, r.deps.Now(), outcomes)
	path, err := results.SaveSummary(config.AggregateFileName, summary)
	if err != nil {
		return &summary, err
	}
	r.logger.Info("summary_saved", zap.String("path", path))

	if cfg.HTMLReport {
		if err := r.writeHTMLReport(results, screenshots, summary); err != nil {
			r.logger.Warn("html_report_failed", zap.Error(err))
		}
	}

	report.PrintSummary(r.deps.Out, summary)

	if summary.Summary.FailedReports > 0 {
		return &summary, fmt.Errorf("%w: %d of %d reports failed", ErrReportsFailed, summary.Summary.FailedReports, summary.Summary.TotalReports)
	}
	return &summary, nil
}

// runReport is one isolated unit. It always returns a result; a unit error
// is stored in the result rather than returned so siblings keep running.
func (r *Runner) runReport(ctx context.Context, env runEnv, descriptor models.ReportDescriptor) models.PersistedResult {
	logger := r.logger.With(zap.String("report_id", descriptor.ID), zap.String("report_name", descriptor.Name))
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.deps.Config.ReportTimeout)
	defer cancel()

	result := models.NewPersistedResult(descriptor, env.environment, env.runID, models.NewScanResult())
	inspection, err := r.inspect(ctx, env, descriptor)
	if err != nil {
		result.Error = err.Error()
		logger.Error("report_failed", zap.Error(err))
	} else {
		result.ScanResult = inspection.Scan
		result.Screenshots = inspection.Screenshots
		if renderErr := inspection.Scan.Err(); renderErr != nil {
			logger.Warn("visual_errors", zap.Error(renderErr))
		}
	}
	result.NodeDuration = float64(time.Since(start)) / float64(time.Millisecond)
	result.Passed = !result.Failed()

	path, err := env.results.Save(result)
	if err != nil {
		logger.Error("result_write_failed", zap.Error(err))
		return result
	}
	logger.Info("report_finished",
		zap.Bool("passed", result.Passed),
		zap.Strings("failed_pages", result.FailedPages()),
		zap.String("path", path),
	)
	return result
}

func (r *Runner) inspect(ctx context.Context, env runEnv, descriptor models.ReportDescriptor) (*browser.Inspection, error) {
	info, err := models.NewEmbedInfo(descriptor)
	if err != nil {
		return nil, err
	}
	token, err := env.tokens.IssueToken(ctx, info, env.accessToken)
	if err != nil {
		return nil, err
	}
	if token.Expired(r.deps.Now()) {
		return nil, fmt.Errorf("%w: token for report %s expired at %s", models.ErrToken, descriptor.ID, token.Expiration.Format(time.RFC3339))
	}
	return env.inspector.Inspect(ctx, descriptor, token)
}

func (r *Runner) writeHTMLReport(results *repository.ResultRepository, screenshots *repository.ScreenshotStore, summary models.RunSummary) error {
	renderer, err := report.NewHTMLRenderer(screenshots)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, summary); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	path, err := results.WriteArtifact(config.HTMLReportName, buf.Bytes())
	if err != nil {
		return err
	}
	r.logger.Info("html_report_saved", zap.String("path", path))
	return nil
}
