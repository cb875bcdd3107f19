package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// CredentialProvider acquires access tokens for the reporting API
type CredentialProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// ClientCredentialsProvider implements CredentialProvider with the OAuth2
// client-credentials grant
type ClientCredentialsProvider struct {
	credentials *config.CredentialsConfig
	endpoints   config.Endpoints
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewCredentialProvider creates a new credential provider. A nil httpClient
// uses the oauth2 package default.
func NewCredentialProvider(cfg *config.CredentialsConfig, endpoints config.Endpoints, httpClient *http.Client, logger *zap.Logger) CredentialProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientCredentialsProvider{
		credentials: cfg,
		endpoints:   endpoints,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// AccessToken runs the client-credentials flow once. There is no retry.
func (p *ClientCredentialsProvider) AccessToken(ctx context.Context) (string, error) {
	if p.credentials == nil ||
		strings.TrimSpace(p.credentials.ClientID) == "" ||
		strings.TrimSpace(p.credentials.ClientSecret) == "" ||
		strings.TrimSpace(p.credentials.TenantID) == "" {
		return "", fmt.Errorf("%w: client id, client secret and tenant id are required", models.ErrAuth)
	}

	cc := clientcredentials.Config{
		ClientID:     p.credentials.ClientID,
		ClientSecret: p.credentials.ClientSecret,
		TokenURL:     p.endpoints.TokenURL(p.credentials.TenantID),
		Scopes:       []string{p.endpoints.Scope()},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := cc.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			p.logger.Error("access_token_rejected",
				zap.Int("status", status),
				zap.String("error_code", retrieveErr.ErrorCode),
			)
			return "", fmt.Errorf("%w: identity provider rejected credentials (status %d): %s",
				models.ErrAuth, status, describeRetrieveError(retrieveErr))
		}
		return "", fmt.Errorf("%w: %v", models.ErrAuth, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: identity provider returned an empty access token", models.ErrAuth)
	}

	p.logger.Info("access_token_acquired", zap.Time("expiry", token.Expiry))
	return token.AccessToken, nil
}

func describeRetrieveError(err *oauth2.RetrieveError) string {
	if err.ErrorDescription != "" {
		return err.ErrorDescription
	}
	if err.ErrorCode != "" {
		return err.ErrorCode
	}
	return strings.TrimSpace(string(err.Body))
}
