package config

import (
	"fmt"
	"strings"
)

const (
	EnvironmentProd = "prod"
	EnvironmentGov  = "gov"
)

// Endpoints are the base URLs of one cloud environment.
type Endpoints struct {
	Name          string
	AuthorityHost string
	Resource      string
	APIBaseURL    string
	WebBaseURL    string
}

var knownEnvironments = map[string]Endpoints{
	EnvironmentProd: {
		Name:          EnvironmentProd,
		AuthorityHost: "https://login.microsoftonline.com",
		Resource:      "https://analysis.windows.net/powerbi/api",
		APIBaseURL:    "https://api.powerbi.com",
		WebBaseURL:    "https://app.powerbi.com",
	},
	EnvironmentGov: {
		Name:          EnvironmentGov,
		AuthorityHost: "https://login.microsoftonline.us",
		Resource:      "https://analysis.usgovcloudapi.net/powerbi/api",
		APIBaseURL:    "https://api.powerbigov.us",
		WebBaseURL:    "https://app.powerbigov.us",
	},
}

// LoadEndpoints resolves the endpoints for environment, applying the
// AUTHORITY_HOST, API_BASE_URL and WEB_BASE_URL overrides.
func LoadEndpoints(environment string, getenv func(string) string) (Endpoints, error) {
	if environment == "" {
		environment = EnvironmentProd
	}
	endpoints, ok := knownEnvironments[environment]
	if !ok {
		return Endpoints{}, fmt.Errorf("unknown environment %q", environment)
	}

	if v := getenv("AUTHORITY_HOST"); v != "" {
		endpoints.AuthorityHost = v
	}
	if v := getenv("API_BASE_URL"); v != "" {
		endpoints.APIBaseURL = v
	}
	if v := getenv("WEB_BASE_URL"); v != "" {
		endpoints.WebBaseURL = v
	}

	endpoints.AuthorityHost = strings.TrimRight(endpoints.AuthorityHost, "/")
	endpoints.APIBaseURL = strings.TrimRight(endpoints.APIBaseURL, "/")
	endpoints.WebBaseURL = strings.TrimRight(endpoints.WebBaseURL, "/")
	return endpoints, nil
}

// TokenURL returns the OAuth2 token endpoint for tenant.
func (e Endpoints) TokenURL(tenantID string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", e.AuthorityHost, tenantID)
}

// Scope returns the client-credentials scope for the reporting API.
func (e Endpoints) Scope() string {
	return e.Resource + "/.default"
}

// ServiceURL links to a report page in the web application.
// Page names are used as-is.
func (e Endpoints) ServiceURL(workspaceID, reportID, pageName string) string {
	return fmt.Sprintf("%s/groups/%s/reports/%s/%s", e.WebBaseURL, workspaceID, reportID, pageName)
}

// EmbedURL links to a report page through the embed endpoint.
func (e Endpoints) EmbedURL(reportID, pageName string) string {
	return fmt.Sprintf("%s/reportEmbed?reportId=%s&pageName=%s", e.WebBaseURL, reportID, pageName)
}

// BookmarkServiceURL links to a report with a bookmark applied.
func (e Endpoints) BookmarkServiceURL(workspaceID, reportID, bookmarkName string) string {
	return fmt.Sprintf("%s/groups/%s/reports/%s?bookmarkGuid=%s", e.WebBaseURL, workspaceID, reportID, bookmarkName)
}

// BookmarkEmbedURL links to the embedded report with a bookmark applied.
func (e Endpoints) BookmarkEmbedURL(reportID, bookmarkName string) string {
	return fmt.Sprintf("%s/reportEmbed?reportId=%s&bookmarkGuid=%s", e.WebBaseURL, reportID, bookmarkName)
}
