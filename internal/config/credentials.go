package config

import (
	"fmt"
	"strings"

	"github.com/pbi-visual/visualcheck/internal/models"
)

// CredentialsConfig holds the service principal identity used to talk to the
// reporting platform.
type CredentialsConfig struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	Environment  string
	DefaultRole  string
	RLSUsername  string
}

// LoadCredentialsConfig loads the service principal from environment variables.
// Every missing required variable is named in the returned error.
func LoadCredentialsConfig(getenv func(string) string) (*CredentialsConfig, error) {
	config := &CredentialsConfig{
		ClientID:     strings.TrimSpace(getenv("SP_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(getenv("SP_CLIENT_SECRET")),
		TenantID:     strings.TrimSpace(getenv("SP_TENANT_ID")),
		Environment:  strings.ToLower(strings.TrimSpace(getenv("ENVIRONMENT"))),
		DefaultRole:  strings.TrimSpace(getenv("RLS_DEFAULT_ROLE")),
		RLSUsername:  strings.TrimSpace(getenv("RLS_USERNAME")),
	}

	var missing []string
	if config.ClientID == "" {
		missing = append(missing, "SP_CLIENT_ID")
	}
	if config.ClientSecret == "" {
		missing = append(missing, "SP_CLIENT_SECRET")
	}
	if config.TenantID == "" {
		missing = append(missing, "SP_TENANT_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is required", models.ErrConfig, strings.Join(missing, ", "))
	}

	if config.Environment == "" {
		config.Environment = EnvironmentProd
	}
	if _, ok := knownEnvironments[config.Environment]; !ok {
		return nil, fmt.Errorf("%w: unknown ENVIRONMENT %q (expected prod or gov)", models.ErrConfig, config.Environment)
	}

	return config, nil
}

// Username returns the effective identity username sent with a role.
// It falls back to the role name when RLS_USERNAME is unset.
func (c *CredentialsConfig) Username(role string) string {
	if c.RLSUsername != "" {
		return c.RLSUsername
	}
	return role
}
