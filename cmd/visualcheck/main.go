package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pbi-visual/visualcheck/internal/browser"
	internalcli "github.com/pbi-visual/visualcheck/internal/cli"
	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/handlers"
	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/pbi-visual/visualcheck/internal/repository"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var version = "0.1.0"

// Exit codes reported to CI.
const (
	exitReportsFailed = 1
	exitRunAborted    = 2
)

const loggerKey = "logger"

// newLogger builds the process logger
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loggerFrom returns the logger created in the app's Before hook
func loggerFrom(c *cli.Context) *zap.Logger {
	if logger, ok := c.App.Metadata[loggerKey].(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

func runFlags() []cli.Flag {
	defaults := config.DefaultRunConfig()
	return []cli.Flag{
		&cli.StringFlag{Name: "metadata-dir", Value: defaults.MetadataDir, Usage: "directory of report descriptor files", EnvVars: []string{"METADATA_DIR"}},
		&cli.StringFlag{Name: "results-dir", Value: defaults.ResultsDir, Usage: "directory for results, screenshots and reports", EnvVars: []string{"RESULTS_DIR"}},
		&cli.IntFlag{Name: "parallel", Value: defaults.Parallelism, Usage: "reports scanned concurrently", EnvVars: []string{"PARALLELISM"}},
		&cli.DurationFlag{Name: "page-timeout", Value: defaults.PageTimeout, Usage: "render wait per page", EnvVars: []string{"PAGE_RENDER_TIMEOUT"}},
		&cli.DurationFlag{Name: "error-grace", Value: defaults.ErrorGrace, Usage: "window after the first visual error to collect further errors", EnvVars: []string{"PAGE_ERROR_GRACE"}},
		&cli.DurationFlag{Name: "screenshot-delay", Value: defaults.ScreenshotDelay, Usage: "wait after activating a page before its screenshot", EnvVars: []string{"SCREENSHOT_DELAY"}},
		&cli.DurationFlag{Name: "report-timeout", Value: defaults.ReportTimeout, Usage: "deadline for one report", EnvVars: []string{"REPORT_TIMEOUT"}},
		&cli.BoolFlag{Name: "bookmarks", Usage: "also apply and scan every bookmark", EnvVars: []string{"SCAN_BOOKMARKS"}},
		&cli.DurationFlag{Name: "bookmark-idle", Value: defaults.BookmarkIdle, Usage: "quiet period that ends a bookmark scan", EnvVars: []string{"BOOKMARK_IDLE"}},
		&cli.StringFlag{Name: "sdk-url", Value: defaults.SDKURL, Usage: "URL of the report embedding SDK", EnvVars: []string{"REPORT_SDK_URL"}},
		&cli.BoolFlag{Name: "headless", Value: defaults.Headless, Usage: "run the browser headless", EnvVars: []string{"HEADLESS"}},
		&cli.BoolFlag{Name: "html", Value: defaults.HTMLReport, Usage: "write report.html", EnvVars: []string{"HTML_REPORT"}},
	}
}

// buildRunConfig reads run tuning from flags
func buildRunConfig(c *cli.Context) config.RunConfig {
	return config.RunConfig{
		MetadataDir:     c.String("metadata-dir"),
		ResultsDir:      c.String("results-dir"),
		Parallelism:     c.Int("parallel"),
		PageTimeout:     c.Duration("page-timeout"),
		ErrorGrace:      c.Duration("error-grace"),
		ScreenshotDelay: c.Duration("screenshot-delay"),
		ReportTimeout:   c.Duration("report-timeout"),
		ScanBookmarks:   c.Bool("bookmarks"),
		BookmarkIdle:    c.Duration("bookmark-idle"),
		SDKURL:          c.String("sdk-url"),
		Headless:        c.Bool("headless"),
		HTMLReport:      c.Bool("html"),
	}
}

// RunCommand returns the run command
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Scan every report in the metadata directory for visual errors",
		Flags: runFlags(),
		Action: func(c *cli.Context) error {
			runner := internalcli.NewRunner(internalcli.RunDependencies{
				Config: buildRunConfig(c),
				Logger: loggerFrom(c),
				Out:    c.App.Writer,
			})
			_, err := runner.Run(c.Context)
			return err
		},
	}
}

// RefreshMetadataCommand returns the refresh-metadata command
func RefreshMetadataCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh-metadata",
		Usage: "Regenerate report descriptors from a workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Usage: "workspace (group) id", EnvVars: []string{"WORKSPACE_ID"}},
			&cli.StringFlag{Name: "metadata-dir", Value: config.DefaultMetadataDir, Usage: "directory to write descriptors to", EnvVars: []string{"METADATA_DIR"}},
		},
		Action: func(c *cli.Context) error {
			result, err := internalcli.RunRefresh(c.Context, internalcli.RefreshDependencies{
				WorkspaceID: c.String("workspace"),
				MetadataDir: c.String("metadata-dir"),
				Getenv:      os.Getenv,
				Fs:          afero.NewOsFs(),
				Logger:      loggerFrom(c),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Wrote %d reports to %s\n", len(result.Reports), result.Path)
			return nil
		},
	}
}

// buildServerDependencies creates all dependencies needed for the results server
func buildServerDependencies(c *cli.Context) internalcli.ServerDependencies {
	serverConfig := config.LoadServerConfig(os.Getenv)
	if c.IsSet("port") {
		serverConfig.Port = c.String("port")
	}
	if c.IsSet("results-dir") {
		serverConfig.ResultsDir = c.String("results-dir")
	}

	logger := loggerFrom(c)
	fs := afero.NewOsFs()
	results := repository.NewResultRepository(fs, serverConfig.ResultsDir)

	return internalcli.ServerDependencies{
		ServerConfig:   serverConfig,
		Logger:         logger,
		ResultsHandler: handlers.NewResultsHandler(results, fs, serverConfig.ResultsDir, logger),
		SummaryHandler: handlers.NewSummaryHandler(results, logger),
		ResultHandler:  handlers.NewResultHandler(results, logger),
	}
}

// ServeCommand returns the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the results directory and HTML report over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port (default 8090, or PORT)"},
			&cli.StringFlag{Name: "results-dir", Usage: "results directory (default test-results, or RESULTS_DIR)"},
		},
		Action: func(c *cli.Context) error {
			return internalcli.RunServe(buildServerDependencies(c))
		},
	}
}

// InstallBrowsersCommand returns the install-browsers command
func InstallBrowsersCommand() *cli.Command {
	return &cli.Command{
		Name:  "install-browsers",
		Usage: "Download the browser driver and chromium",
		Action: func(c *cli.Context) error {
			if err := browser.InstallBrowsers(); err != nil {
				return fmt.Errorf("failed to install browsers: %w", err)
			}
			loggerFrom(c).Info("browsers_installed")
			return nil
		},
	}
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	switch {
	case errors.Is(err, internalcli.ErrReportsFailed):
		return exitReportsFailed
	case models.IsRunFatal(err):
		return exitRunAborted
	default:
		return exitReportsFailed
	}
}

func main() {
	envErr := godotenv.Load()

	app := &cli.App{
		Name:    "visualcheck",
		Usage:   "Visual regression checks for embedded reports",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "development logging", EnvVars: []string{"VERBOSE"}},
		},
		Before: func(c *cli.Context) error {
			logger, err := newLogger(c.Bool("verbose"))
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			if envErr != nil {
				logger.Warn("env_file_not_found", zap.String("hint", "using environment variables"))
			}
			zap.ReplaceGlobals(logger)
			c.App.Metadata = map[string]interface{}{loggerKey: logger}
			return nil
		},
		After: func(c *cli.Context) error {
			_ = loggerFrom(c).Sync()
			return nil
		},
		Commands: []*cli.Command{
			RunCommand(),
			RefreshMetadataCommand(),
			ServeCommand(),
			InstallBrowsersCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
