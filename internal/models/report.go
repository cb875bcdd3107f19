package models

import (
	"fmt"
	"strings"
	"time"
)

// ReportDescriptor is one report entry from the metadata directory.
// Field names match the descriptor files on disk.
type ReportDescriptor struct {
	ID                               string `json:"Id"`
	Name                             string `json:"Name"`
	EmbedURL                         string `json:"EmbedUrl"`
	WebURL                           string `json:"WebUrl,omitempty"`
	WorkspaceID                      string `json:"WorkspaceId"`
	DatasetID                        string `json:"DatasetId,omitempty"`
	Role                             string `json:"Role,omitempty"`
	IsEffectiveIdentityRequired      bool   `json:"IsEffectiveIdentityRequired,omitempty"`
	IsEffectiveIdentityRolesRequired bool   `json:"IsEffectiveIdentityRolesRequired,omitempty"`
}

// Validate checks the fields every report run depends on.
func (d ReportDescriptor) Validate() error {
	var missing []string
	if strings.TrimSpace(d.ID) == "" {
		missing = append(missing, "Id")
	}
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "Name")
	}
	if strings.TrimSpace(d.EmbedURL) == "" {
		missing = append(missing, "EmbedUrl")
	}
	if strings.TrimSpace(d.WorkspaceID) == "" {
		missing = append(missing, "WorkspaceId")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: report %q is missing %s", ErrConfig, d.label(), strings.Join(missing, ", "))
}

// RequiresEffectiveIdentity reports whether embed tokens must carry an
// effective identity: the dataset declared it, or the descriptor names a role.
func (d ReportDescriptor) RequiresEffectiveIdentity() bool {
	return d.IsEffectiveIdentityRequired || d.IsEffectiveIdentityRolesRequired || strings.TrimSpace(d.Role) != ""
}

// String renders the descriptor the way test names and log lines show it.
func (d ReportDescriptor) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.ID)
}

func (d ReportDescriptor) label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// EmbedInfo is the subset of a descriptor needed to mint an embed token.
type EmbedInfo struct {
	ReportID         string
	WorkspaceID      string
	DatasetID        string
	Role             string
	RequiresIdentity bool
}

// NewEmbedInfo derives EmbedInfo from a descriptor.
func NewEmbedInfo(d ReportDescriptor) (EmbedInfo, error) {
	if strings.TrimSpace(d.WorkspaceID) == "" {
		return EmbedInfo{}, fmt.Errorf("%w: report %q is missing WorkspaceId", ErrConfig, d.label())
	}
	if strings.TrimSpace(d.ID) == "" {
		return EmbedInfo{}, fmt.Errorf("%w: report %q is missing Id", ErrConfig, d.label())
	}

	return EmbedInfo{
		ReportID:         d.ID,
		WorkspaceID:      d.WorkspaceID,
		DatasetID:        d.DatasetID,
		Role:             strings.TrimSpace(d.Role),
		RequiresIdentity: d.RequiresEffectiveIdentity(),
	}, nil
}

// EmbedToken is a short-lived credential scoped to one report.
type EmbedToken struct {
	Token      string
	TokenID    string
	Expiration time.Time
}

// Expired reports whether the token is past its expiration at now.
// A zero expiration is treated as never expiring.
func (t EmbedToken) Expired(now time.Time) bool {
	if t.Expiration.IsZero() {
		return false
	}
	return !now.Before(t.Expiration)
}
