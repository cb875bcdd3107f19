package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pbi-visual/visualcheck/internal/models"
	"go.uber.org/zap"
)

// MetadataStore defines the persistence the metadata refresh depends on
type MetadataStore interface {
	LoadExisting() ([]models.ReportDescriptor, error)
	SaveWorkspace(workspaceID string, reports []models.ReportDescriptor) (string, error)
}

// MetadataService rebuilds the report descriptor file from the workspace
type MetadataService interface {
	Refresh(ctx context.Context, workspaceID string) (*RefreshResult, error)
}

// RefreshResult summarizes a completed refresh
type RefreshResult struct {
	Path    string
	Reports []models.ReportDescriptor
}

// MetadataServiceImpl implements MetadataService
type MetadataServiceImpl struct {
	credentials CredentialProvider
	client      ReportingClient
	store       MetadataStore
	logger      *zap.Logger
}

// NewMetadataService creates a new metadata service
func NewMetadataService(credentials CredentialProvider, client ReportingClient, store MetadataStore, logger *zap.Logger) MetadataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataServiceImpl{
		credentials: credentials,
		client:      client,
		store:       store,
		logger:      logger,
	}
}

// Refresh lists the workspace reports, reads the identity flags of each
// backing dataset and writes the descriptor envelope. Roles already present
// in existing descriptors are carried over.
func (s *MetadataServiceImpl) Refresh(ctx context.Context, workspaceID string) (*RefreshResult, error) {
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: WORKSPACE_ID is required", models.ErrConfig)
	}

	accessToken, err := s.credentials.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	reports, err := s.client.ListReports(ctx, accessToken, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	existingRoles, err := s.existingRoles()
	if err != nil {
		return nil, err
	}

	datasets := map[string]*DatasetInfo{}
	descriptors := make([]models.ReportDescriptor, 0, len(reports))
	for _, report := range reports {
		descriptor := models.ReportDescriptor{
			ID:          report.ID,
			Name:        report.Name,
			EmbedURL:    report.EmbedURL,
			WebURL:      report.WebURL,
			WorkspaceID: workspaceID,
			DatasetID:   report.DatasetID,
			Role:        existingRoles[report.ID],
		}

		if report.DatasetID != "" {
			dataset, ok := datasets[report.DatasetID]
			if !ok {
				dataset, err = s.client.GetDataset(ctx, accessToken, workspaceID, report.DatasetID)
				if err != nil {
					s.logger.Warn("dataset_lookup_failed",
						zap.String("report_id", report.ID),
						zap.String("dataset_id", report.DatasetID),
						zap.Error(err),
					)
				}
				datasets[report.DatasetID] = dataset
			}
			if dataset != nil {
				descriptor.IsEffectiveIdentityRequired = dataset.IsEffectiveIdentityRequired
				descriptor.IsEffectiveIdentityRolesRequired = dataset.IsEffectiveIdentityRolesRequired
			}
		}

		descriptors = append(descriptors, descriptor)
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].ID < descriptors[j].ID
	})

	path, err := s.store.SaveWorkspace(workspaceID, descriptors)
	if err != nil {
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	s.logger.Info("metadata_refreshed",
		zap.String("workspace_id", workspaceID),
		zap.Int("reports", len(descriptors)),
		zap.String("path", path),
	)

	return &RefreshResult{Path: path, Reports: descriptors}, nil
}

func (s *MetadataServiceImpl) existingRoles() (map[string]string, error) {
	existing, err := s.store.LoadExisting()
	if err != nil {
		return nil, fmt.Errorf("failed to read existing metadata: %w", err)
	}
	roles := make(map[string]string, len(existing))
	for _, descriptor := range existing {
		if descriptor.Role != "" {
			roles[descriptor.ID] = descriptor.Role
		}
	}
	return roles, nil
}
