package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/models"
	"go.uber.org/zap"
)

// ReportingClient handles communication with the reporting REST API
type ReportingClient interface {
	GenerateToken(ctx context.Context, accessToken, workspaceID, reportID string, req *GenerateTokenRequest) (*GenerateTokenResponse, error)
	ListReports(ctx context.Context, accessToken, workspaceID string) ([]ReportInfo, error)
	GetDataset(ctx context.Context, accessToken, workspaceID, datasetID string) (*DatasetInfo, error)
}

// HTTPReportingClient implements ReportingClient using HTTP
type HTTPReportingClient struct {
	endpoints  config.Endpoints
	httpClient *http.Client
	logger     *zap.Logger
}

// NewReportingClient creates a new reporting API client
func NewReportingClient(endpoints config.Endpoints, httpClient *http.Client, logger *zap.Logger) ReportingClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPReportingClient{
		endpoints:  endpoints,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GenerateTokenRequest is the body of a GenerateToken call
type GenerateTokenRequest struct {
	AccessLevel string              `json:"accessLevel"`
	Identities  []EffectiveIdentity `json:"identities,omitempty"`
}

// EffectiveIdentity scopes an embed token to a row-level security role
type EffectiveIdentity struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Datasets []string `json:"datasets"`
}

// GenerateTokenResponse is the response of a GenerateToken call
type GenerateTokenResponse struct {
	Token      string    `json:"token"`
	TokenID    string    `json:"tokenId"`
	Expiration time.Time `json:"expiration"`
}

// ReportInfo is one entry of a workspace report listing
type ReportInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	WebURL    string `json:"webUrl"`
	EmbedURL  string `json:"embedUrl"`
	DatasetID string `json:"datasetId"`
}

// DatasetInfo carries the dataset flags that drive effective identity
type DatasetInfo struct {
	ID                               string `json:"id"`
	Name                             string `json:"name"`
	IsEffectiveIdentityRequired      bool   `json:"isEffectiveIdentityRequired"`
	IsEffectiveIdentityRolesRequired bool   `json:"isEffectiveIdentityRolesRequired"`
}

// GenerateToken mints an embed token for one report
func (c *HTTPReportingClient) GenerateToken(ctx context.Context, accessToken, workspaceID, reportID string, req *GenerateTokenRequest) (*GenerateTokenResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := c.apiEndpoint(fmt.Sprintf("/v1.0/myorg/groups/%s/reports/%s/GenerateToken",
		url.PathEscape(workspaceID), url.PathEscape(reportID)))

	body, status, err := c.do(ctx, http.MethodPost, apiURL, accessToken, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrToken, err)
	}
	if !isSuccess(status) {
		c.logger.Warn("generate_token_rejected",
			zap.String("report_id", reportID),
			zap.Int("status", status),
		)
		return nil, models.NewAPIError("generate embed token", status, string(body), models.ErrToken)
	}

	var tokenResp GenerateTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", models.ErrToken, err)
	}
	if tokenResp.Token == "" {
		return nil, fmt.Errorf("%w: response for report %s has no token", models.ErrToken, reportID)
	}

	return &tokenResp, nil
}

// ListReports lists the reports of a workspace
func (c *HTTPReportingClient) ListReports(ctx context.Context, accessToken, workspaceID string) ([]ReportInfo, error) {
	apiURL := c.apiEndpoint(fmt.Sprintf("/v1.0/myorg/groups/%s/reports", url.PathEscape(workspaceID)))

	body, status, err := c.do(ctx, http.MethodGet, apiURL, accessToken, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, models.NewAPIError("list reports", status, string(body), nil)
	}

	var listing struct {
		Value []ReportInfo `json:"value"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return listing.Value, nil
}

// GetDataset retrieves one dataset of a workspace
func (c *HTTPReportingClient) GetDataset(ctx context.Context, accessToken, workspaceID, datasetID string) (*DatasetInfo, error) {
	apiURL := c.apiEndpoint(fmt.Sprintf("/v1.0/myorg/groups/%s/datasets/%s",
		url.PathEscape(workspaceID), url.PathEscape(datasetID)))

	body, status, err := c.do(ctx, http.MethodGet, apiURL, accessToken, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, models.NewAPIError("get dataset", status, string(body), nil)
	}

	var dataset DatasetInfo
	if err := json.Unmarshal(body, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &dataset, nil
}

func (c *HTTPReportingClient) do(ctx context.Context, method, apiURL, accessToken string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("reporting_api_response",
		zap.String("method", method),
		zap.String("url", apiURL),
		zap.Int("status", resp.StatusCode),
	)
	return body, resp.StatusCode, nil
}

// apiEndpoint returns the full API endpoint URL for the configured environment
func (c *HTTPReportingClient) apiEndpoint(path string) string {
	return c.endpoints.APIBaseURL + path
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
