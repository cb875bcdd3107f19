package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/models"
	"github.com/pbi-visual/visualcheck/internal/repository"
	"github.com/pbi-visual/visualcheck/internal/services"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// RefreshDependencies holds all dependencies needed to refresh metadata.
// Credentials and Reporting are built from the environment when nil.
type RefreshDependencies struct {
	WorkspaceID string
	MetadataDir string
	Getenv      func(string) string
	Fs          afero.Fs
	HTTPClient  *http.Client
	Logger      *zap.Logger
	Credentials services.CredentialProvider
	Reporting   services.ReportingClient
}

// RunRefresh regenerates the workspace descriptor file from the reporting API
func RunRefresh(ctx context.Context, deps RefreshDependencies) (*services.RefreshResult, error) {
	if strings.TrimSpace(deps.WorkspaceID) == "" {
		return nil, fmt.Errorf("%w: WORKSPACE_ID is required", models.ErrConfig)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}

	creds, err := config.LoadCredentialsConfig(deps.Getenv)
	if err != nil {
		return nil, err
	}
	endpoints, err := config.LoadEndpoints(creds.Environment, deps.Getenv)
	if err != nil {
		return nil, err
	}

	credentials := deps.Credentials
	if credentials == nil {
		credentials = services.NewCredentialProvider(creds, endpoints, deps.HTTPClient, deps.Logger)
	}
	client := deps.Reporting
	if client == nil {
		client = services.NewReportingClient(endpoints, deps.HTTPClient, deps.Logger)
	}

	store := repository.NewMetadataRepository(deps.Fs, deps.MetadataDir)
	return services.NewMetadataService(credentials, client, store, deps.Logger).Refresh(ctx, deps.WorkspaceID)
}
