package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validDescriptor() ReportDescriptor {
	return ReportDescriptor{
		ID:          "r-1",
		Name:        "Sales",
		EmbedURL:    "https://app.powerbi.com/reportEmbed?reportId=r-1",
		WorkspaceID: "ws-1",
		DatasetID:   "ds-1",
	}
}

func TestReportDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(d *ReportDescriptor)
		wantErr     bool
		wantMissing []string
	}{
		{
			name:   "complete descriptor",
			mutate: func(d *ReportDescriptor) {},
		},
		{
			name:        "missing workspace",
			mutate:      func(d *ReportDescriptor) { d.WorkspaceID = "" },
			wantErr:     true,
			wantMissing: []string{"WorkspaceId"},
		},
		{
			name: "missing id and embed url",
			mutate: func(d *ReportDescriptor) {
				d.ID = " "
				d.EmbedURL = ""
			},
			wantErr:     true,
			wantMissing: []string{"Id", "EmbedUrl"},
		},
		{
			name:   "dataset is optional",
			mutate: func(d *ReportDescriptor) { d.DatasetID = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDescriptor()
			tt.mutate(&d)

			err := d.Validate()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("Expected ErrConfig, got %v", err)
			}
			for _, field := range tt.wantMissing {
				if !strings.Contains(err.Error(), field) {
					t.Errorf("Expected error to name %s, got %q", field, err.Error())
				}
			}
		})
	}
}

func TestNewEmbedInfo(t *testing.T) {
	tests := []struct {
		name             string
		descriptor       ReportDescriptor
		wantErr          error
		wantRole         string
		wantRequiresRole bool
	}{
		{
			name:       "no identity required",
			descriptor: validDescriptor(),
		},
		{
			name: "identity required with role",
			descriptor: func() ReportDescriptor {
				d := validDescriptor()
				d.IsEffectiveIdentityRequired = true
				d.Role = "  Viewer "
				return d
			}(),
			wantRole:         "Viewer",
			wantRequiresRole: true,
		},
		{
			name: "roles flag alone requires identity",
			descriptor: func() ReportDescriptor {
				d := validDescriptor()
				d.IsEffectiveIdentityRolesRequired = true
				return d
			}(),
			wantRequiresRole: true,
		},
		{
			name: "role alone requires identity",
			descriptor: func() ReportDescriptor {
				d := validDescriptor()
				d.Role = "Manager"
				return d
			}(),
			wantRole:         "Manager",
			wantRequiresRole: true,
		},
		{
			name: "missing workspace",
			descriptor: func() ReportDescriptor {
				d := validDescriptor()
				d.WorkspaceID = ""
				return d
			}(),
			wantErr: ErrConfig,
		},
		{
			name: "missing report id",
			descriptor: func() ReportDescriptor {
				d := validDescriptor()
				d.ID = ""
				return d
			}(),
			wantErr: ErrConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := NewEmbedInfo(tt.descriptor)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewEmbedInfo() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEmbedInfo() unexpected error = %v", err)
			}
			if info.ReportID != tt.descriptor.ID || info.WorkspaceID != tt.descriptor.WorkspaceID {
				t.Errorf("Unexpected ids in %+v", info)
			}
			if info.Role != tt.wantRole {
				t.Errorf("Expected role %q, got %q", tt.wantRole, info.Role)
			}
			if info.RequiresIdentity != tt.wantRequiresRole {
				t.Errorf("Expected RequiresIdentity %v, got %v", tt.wantRequiresRole, info.RequiresIdentity)
			}
		})
	}
}

func TestEmbedToken_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token EmbedToken
		want  bool
	}{
		{name: "zero expiration", token: EmbedToken{Token: "t"}, want: false},
		{name: "future", token: EmbedToken{Expiration: now.Add(time.Minute)}, want: false},
		{name: "exactly now", token: EmbedToken{Expiration: now}, want: true},
		{name: "past", token: EmbedToken{Expiration: now.Add(-time.Minute)}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := NewAPIError("generate embed token", 403, `{"error":"forbidden"}`, ErrToken)

	if !errors.Is(err, ErrToken) {
		t.Errorf("Expected APIError to unwrap to ErrToken")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 403 {
		t.Errorf("Expected errors.As to find status 403, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("Expected message to include status, got %q", err.Error())
	}
}

func TestIsRunFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "config", err: ErrConfig, want: true},
		{name: "no reports", err: ErrNoReports, want: true},
		{name: "auth", err: ErrAuth, want: true},
		{name: "token", err: NewAPIError("generate embed token", 500, "", ErrToken), want: false},
		{name: "missing role", err: ErrMissingRole, want: false},
		{name: "timeout", err: ErrReportTimeout, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRunFatal(tt.err); got != tt.want {
				t.Errorf("IsRunFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
