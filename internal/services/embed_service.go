package services

import (
	"context"
	"fmt"

	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/models"
	"go.uber.org/zap"
)

// EmbedTokenService issues report-scoped embed tokens
type EmbedTokenService interface {
	IssueToken(ctx context.Context, info models.EmbedInfo, accessToken string) (models.EmbedToken, error)
}

// EmbedTokenServiceImpl implements EmbedTokenService
type EmbedTokenServiceImpl struct {
	client      ReportingClient
	credentials *config.CredentialsConfig
	logger      *zap.Logger
}

// NewEmbedTokenService creates a new embed token service
func NewEmbedTokenService(client ReportingClient, cfg *config.CredentialsConfig, logger *zap.Logger) EmbedTokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &config.CredentialsConfig{}
	}
	return &EmbedTokenServiceImpl{
		client:      client,
		credentials: cfg,
		logger:      logger,
	}
}

// IssueToken requests a view-only embed token, attaching an effective
// identity when the report's dataset requires one
func (s *EmbedTokenServiceImpl) IssueToken(ctx context.Context, info models.EmbedInfo, accessToken string) (models.EmbedToken, error) {
	req, err := s.buildRequest(info)
	if err != nil {
		return models.EmbedToken{}, err
	}

	resp, err := s.client.GenerateToken(ctx, accessToken, info.WorkspaceID, info.ReportID, req)
	if err != nil {
		return models.EmbedToken{}, fmt.Errorf("failed to generate embed token for report %s: %w", info.ReportID, err)
	}

	s.logger.Info("embed_token_issued",
		zap.String("report_id", info.ReportID),
		zap.String("token_id", resp.TokenID),
		zap.Bool("effective_identity", len(req.Identities) > 0),
	)

	return models.EmbedToken{
		Token:      resp.Token,
		TokenID:    resp.TokenID,
		Expiration: resp.Expiration,
	}, nil
}

func (s *EmbedTokenServiceImpl) buildRequest(info models.EmbedInfo) (*GenerateTokenRequest, error) {
	req := &GenerateTokenRequest{AccessLevel: "View"}
	if !info.RequiresIdentity {
		return req, nil
	}

	role := resolveRole(info.Role, s.credentials.DefaultRole)
	if role == "" {
		return nil, fmt.Errorf("%w: report %s (set Role in the descriptor or RLS_DEFAULT_ROLE)", models.ErrMissingRole, info.ReportID)
	}

	identity := EffectiveIdentity{
		Username: s.credentials.Username(role),
		Roles:    []string{role},
	}
	if info.DatasetID != "" {
		identity.Datasets = []string{info.DatasetID}
	}
	req.Identities = []EffectiveIdentity{identity}
	return req, nil
}

// resolveRole prefers the descriptor role over the environment default
func resolveRole(descriptorRole, defaultRole string) string {
	if descriptorRole != "" {
		return descriptorRole
	}
	return defaultRole
}
