package services

import (
	"context"

	"github.com/pbi-visual/visualcheck/internal/models"
)

// MockReportingClient is a mock implementation of ReportingClient for testing
type MockReportingClient struct {
	GenerateTokenFunc func(context.Context, string, string, string, *GenerateTokenRequest) (*GenerateTokenResponse, error)
	ListReportsFunc   func(context.Context, string, string) ([]ReportInfo, error)
	GetDatasetFunc    func(context.Context, string, string, string) (*DatasetInfo, error)
}

func (m *MockReportingClient) GenerateToken(ctx context.Context, accessToken, workspaceID, reportID string, req *GenerateTokenRequest) (*GenerateTokenResponse, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, accessToken, workspaceID, reportID, req)
	}
	return &GenerateTokenResponse{Token: "embed-token", TokenID: "token-id"}, nil
}

func (m *MockReportingClient) ListReports(ctx context.Context, accessToken, workspaceID string) ([]ReportInfo, error) {
	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx, accessToken, workspaceID)
	}
	return nil, nil
}

func (m *MockReportingClient) GetDataset(ctx context.Context, accessToken, workspaceID, datasetID string) (*DatasetInfo, error) {
	if m.GetDatasetFunc != nil {
		return m.GetDatasetFunc(ctx, accessToken, workspaceID, datasetID)
	}
	return &DatasetInfo{ID: datasetID}, nil
}

// MockCredentialProvider is a mock implementation of CredentialProvider for testing
type MockCredentialProvider struct {
	AccessTokenFunc func(context.Context) (string, error)
}

func (m *MockCredentialProvider) AccessToken(ctx context.Context) (string, error) {
	if m.AccessTokenFunc != nil {
		return m.AccessTokenFunc(ctx)
	}
	return "access-token", nil
}

// MockMetadataStore is a mock implementation of MetadataStore for testing
type MockMetadataStore struct {
	LoadExistingFunc  func() ([]models.ReportDescriptor, error)
	SaveWorkspaceFunc func(string, []models.ReportDescriptor) (string, error)
}

func (m *MockMetadataStore) LoadExisting() ([]models.ReportDescriptor, error) {
	if m.LoadExistingFunc != nil {
		return m.LoadExistingFunc()
	}
	return nil, nil
}

func (m *MockMetadataStore) SaveWorkspace(workspaceID string, reports []models.ReportDescriptor) (string, error) {
	if m.SaveWorkspaceFunc != nil {
		return m.SaveWorkspaceFunc(workspaceID, reports)
	}
	return "metadata/reports/reports_datasets.json", nil
}
