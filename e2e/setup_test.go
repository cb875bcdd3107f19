//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pbi-visual/visualcheck/internal/browser"
	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/pbi-visual/visualcheck/internal/report"
	"github.com/pbi-visual/visualcheck/internal/repository"
	"github.com/pbi-visual/visualcheck/internal/services"
	"github.com/playwright-community/playwright-go"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	pw          *playwright.Playwright
	chromium    playwright.Browser
	runConfig   config.RunConfig
	environment string
	runID       string
	descriptors []models.ReportDescriptor
	accessToken string
	tokens      services.EmbedTokenService
	inspector   *browser.Inspector
	results     *repository.ResultRepository
)

// TestMain loads configuration, authenticates once and launches one browser
// shared by every report subtest
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	// Credentials usually live in the repository root .env
	if err := godotenv.Load(filepath.Join("..", ".env")); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using environment variables")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	runConfig = config.DefaultRunConfig()
	runConfig.MetadataDir = envOrDefault("METADATA_DIR", filepath.Join("..", config.DefaultMetadataDir))
	runConfig.ResultsDir = envOrDefault("RESULTS_DIR", filepath.Join("..", config.DefaultResultsDir))
	runConfig.ScanBookmarks = os.Getenv("SCAN_BOOKMARKS") == "true"

	creds, err := config.LoadCredentialsConfig(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	endpoints, err := config.LoadEndpoints(creds.Environment, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	environment = creds.Environment

	fs := afero.NewOsFs()
	descriptors, err = repository.NewMetadataRepository(fs, runConfig.MetadataDir).LoadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	accessToken, err = services.NewCredentialProvider(creds, endpoints, httpClient, logger).AccessToken(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	tokens = services.NewEmbedTokenService(services.NewReportingClient(endpoints, httpClient, logger), creds, logger)

	// Start Playwright (browsers installed via: visualcheck install-browsers)
	pw, err = playwright.Run()
	if err != nil {
		panic(err)
	}
	defer pw.Stop()

	chromium, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(os.Getenv("HEADLESS") != "false"),
	})
	if err != nil {
		panic(err)
	}
	defer chromium.Close()

	results = repository.NewResultRepository(fs, runConfig.ResultsDir)
	screenshots := repository.NewScreenshotStore(fs, runConfig.ResultsDir)
	inspector = browser.NewInspector(
		browser.NewDriver(nil, chromium, logger),
		browser.SDKSource{URL: runConfig.SDKURL},
		browser.NewScanner(endpoints, browser.ScanOptionsFromConfig(runConfig), logger),
		browser.NewCapturer(screenshots, runConfig.ScreenshotDelay, logger),
		logger,
	)
	runID = uuid.NewString()

	code := m.Run()

	stored, err := results.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	summary := report.Summarize(environment, runID, time.Now(), stored)
	if _, err := results.SaveSummary(config.AggregateFileName, summary); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	report.PrintSummary(os.Stdout, summary)
	return code
}

// envOrDefault returns the environment variable value or a default
func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
