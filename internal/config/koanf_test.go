// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolateConfigSearch points CONFIG_PATH at a missing file and runs in an
// empty directory so no stray config.yaml is picked up.
func isolateConfigSearch(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.LastFM.MaxRequests != 2 || cfg.LastFM.Window != time.Second {
		t.Errorf("LastFM budget = %d/%v, want 2/1s", cfg.LastFM.MaxRequests, cfg.LastFM.Window)
	}
	if cfg.LastFM.MinInterval != 500*time.Millisecond {
		t.Errorf("LastFM.MinInterval = %v, want 500ms", cfg.LastFM.MinInterval)
	}
	if cfg.LastFM.MaxCooldown != 30*time.Second {
		t.Errorf("LastFM.MaxCooldown = %v, want 30s", cfg.LastFM.MaxCooldown)
	}
	if cfg.LastFM.MaxAttempts != 3 || cfg.LastFM.BackoffBase != 2*time.Second {
		t.Errorf("unexpected retry defaults: %+v", cfg.LastFM)
	}
	if cfg.Expand.CapPerCall != 50 || cfg.Expand.Timeout != 5*time.Minute {
		t.Errorf("unexpected expand defaults: %+v", cfg.Expand)
	}
	if cfg.Rank.LikedThreshold != 5 {
		t.Errorf("Rank.LikedThreshold = %d, want 5", cfg.Rank.LikedThreshold)
	}
	if cfg.Batch.PageSize != 10 || cfg.Batch.TTL != time.Hour || cfg.Batch.MaxUsers != 1000 {
		t.Errorf("unexpected batch defaults: %+v", cfg.Batch)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	isolateConfigSearch(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Store.Backend != "badger" {
		t.Errorf("Store.Backend = %q, want badger", cfg.Store.Backend)
	}
	if !reflect.DeepEqual(cfg.LastFM.ExcludedTags, []string{"seen live", "fm"}) {
		t.Errorf("ExcludedTags = %v", cfg.LastFM.ExcludedTags)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolateConfigSearch(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("EXPAND_CAP_PER_CALL", "10")
	t.Setenv("BATCH_TTL", "30m")
	t.Setenv("LASTFM_API_KEY", "secret")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LASTFM_EXCLUDED_TAGS", "seen live,favorites,")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Expand.CapPerCall != 10 {
		t.Errorf("Expand.CapPerCall = %d, want 10", cfg.Expand.CapPerCall)
	}
	if cfg.Batch.TTL != 30*time.Minute {
		t.Errorf("Batch.TTL = %v, want 30m", cfg.Batch.TTL)
	}
	if cfg.LastFM.APIKey != "secret" {
		t.Errorf("LastFM.APIKey = %q", cfg.LastFM.APIKey)
	}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if !reflect.DeepEqual(cfg.LastFM.ExcludedTags, []string{"seen live", "favorites"}) {
		t.Errorf("ExcludedTags = %v", cfg.LastFM.ExcludedTags)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
}

func TestLoadWithKoanf_FileThenEnv(t *testing.T) {
	dir := isolateConfigSearch(t)
	path := filepath.Join(dir, "custom.yaml")
	content := `
server:
  port: 7000
batch:
  page_size: 25
store:
  backend: memory
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Batch.PageSize != 25 {
		t.Errorf("Batch.PageSize = %d, want 25 from file", cfg.Batch.PageSize)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want env override 7001", cfg.Server.Port)
	}
}

func TestLoadWithKoanf_InvalidRejected(t *testing.T) {
	isolateConfigSearch(t)
	t.Setenv("BATCH_PAGE_SIZE", "0")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected validation error for page size 0")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"lastfm_api_key", "lastfm.api_key"},
		{"NATS_URL", "events.nats_url"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 0
	cfg.Batch.PageSize = 0
	cfg.Store.Backend = "sqlite"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"HTTP_PORT", "BATCH_PAGE_SIZE", "STORE_BACKEND"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %s in %q", want, msg)
		}
	}
}

func TestValidate_Events(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"in-process", func(*Config) {}, false},
		{"nats url", func(c *Config) { c.Events.NATSURL = "nats://127.0.0.1:4222" }, false},
		{"bad scheme", func(c *Config) { c.Events.NATSURL = "http://example" }, true},
		{"embedded bad port", func(c *Config) { c.Events.Embedded = true; c.Events.EmbeddedPort = 0 }, true},
		{"too many subscribers", func(c *Config) { c.Events.SubscribersCount = 64 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.validateEvents()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEvents() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaintenanceInterval(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.MaintenanceInterval(); got != 15*time.Minute {
		t.Errorf("MaintenanceInterval() = %v, want 15m", got)
	}
	cfg.Batch.TTL = time.Second
	if got := cfg.MaintenanceInterval(); got != time.Minute {
		t.Errorf("MaintenanceInterval() = %v, want floor of 1m", got)
	}
}

func TestEventsConfig_Distributed(t *testing.T) {
	e := EventsConfig{}
	if e.Distributed() {
		t.Error("empty events config should be in-process")
	}
	e.Embedded = true
	if !e.Distributed() {
		t.Error("embedded broker should be distributed")
	}
}
