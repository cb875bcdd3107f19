package config

import (
	"errors"
	"testing"
	"time"

	"github.com/pbi-visual/visualcheck/internal/models"
)

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *RunConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *RunConfig) {}},
		{name: "zero error grace allowed", mutate: func(c *RunConfig) { c.ErrorGrace = 0 }},
		{name: "zero parallelism", mutate: func(c *RunConfig) { c.Parallelism = 0 }, wantErr: true},
		{name: "negative page timeout", mutate: func(c *RunConfig) { c.PageTimeout = -time.Second }, wantErr: true},
		{name: "zero report timeout", mutate: func(c *RunConfig) { c.ReportTimeout = 0 }, wantErr: true},
		{name: "empty results dir", mutate: func(c *RunConfig) { c.ResultsDir = " " }, wantErr: true},
		{
			name: "bookmarks without idle window",
			mutate: func(c *RunConfig) {
				c.ScanBookmarks = true
				c.BookmarkIdle = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, models.ErrConfig) {
				t.Errorf("Expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestLoadServerConfig(t *testing.T) {
	cfg := LoadServerConfig(envFrom(nil))
	if cfg.Port != "8090" || cfg.ResultsDir != DefaultResultsDir {
		t.Errorf("Unexpected defaults %+v", cfg)
	}

	cfg = LoadServerConfig(envFrom(map[string]string{"PORT": "9000", "RESULTS_DIR": "out"}))
	if cfg.Port != "9000" || cfg.ResultsDir != "out" {
		t.Errorf("Unexpected overrides %+v", cfg)
	}
}
