package cli

import (
	"context"
	"sync"

	"github.com/pbi-visual/visualcheck/internal/browser"
	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/pbi-visual/visualcheck/internal/services"
)

// MockInspector is a mock implementation of ReportInspector for testing
type MockInspector struct {
	InspectFunc func(context.Context, models.ReportDescriptor, models.EmbedToken) (*browser.Inspection, error)

	mu        sync.Mutex
	inspected []string
}

func (m *MockInspector) Inspect(ctx context.Context, descriptor models.ReportDescriptor, token models.EmbedToken) (*browser.Inspection, error) {
	m.mu.Lock()
	m.inspected = append(m.inspected, descriptor.ID)
	m.mu.Unlock()

	if m.InspectFunc != nil {
		return m.InspectFunc(ctx, descriptor, token)
	}
	return &browser.Inspection{Scan: models.NewScanResult()}, nil
}

func (m *MockInspector) Inspected() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.inspected...)
}

// MockCredentialProvider is a mock implementation of services.CredentialProvider for testing
type MockCredentialProvider struct {
	AccessTokenFunc func(context.Context) (string, error)
	calls           int
}

func (m *MockCredentialProvider) AccessToken(ctx context.Context) (string, error) {
	m.calls++
	if m.AccessTokenFunc != nil {
		return m.AccessTokenFunc(ctx)
	}
	return "access-token", nil
}

// MockReportingClient is a mock implementation of services.ReportingClient for testing
type MockReportingClient struct {
	GenerateTokenFunc func(context.Context, string, string, string, *services.GenerateTokenRequest) (*services.GenerateTokenResponse, error)
	ListReportsFunc   func(context.Context, string, string) ([]services.ReportInfo, error)
}

func (m *MockReportingClient) GenerateToken(ctx context.Context, accessToken, workspaceID, reportID string, req *services.GenerateTokenRequest) (*services.GenerateTokenResponse, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, accessToken, workspaceID, reportID, req)
	}
	return &services.GenerateTokenResponse{Token: "embed-" + reportID, TokenID: "token-" + reportID}, nil
}

func (m *MockReportingClient) ListReports(ctx context.Context, accessToken, workspaceID string) ([]services.ReportInfo, error) {
	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx, accessToken, workspaceID)
	}
	return nil, nil
}

func (m *MockReportingClient) GetDataset(ctx context.Context, accessToken, workspaceID, datasetID string) (*services.DatasetInfo, error) {
	return &services.DatasetInfo{ID: datasetID}, nil
}

// launcherFor returns a BrowserLauncher that hands out inspector and counts launches
func launcherFor(inspector ReportInspector, launches *int) BrowserLauncher {
	return func(LaunchRequest) (ReportInspector, func() error, error) {
		*launches++
		return inspector, func() error { return nil }, nil
	}
}
