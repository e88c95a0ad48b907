// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trackpool/config.yaml",
	"/etc/trackpool/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults.
// These are applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			Timeout:      30 * time.Second,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 6 * time.Minute, // covers a full expand run
			Environment:  "development",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		LastFM: LastFMConfig{
			BaseURL:        "https://ws.audioscrobbler.com/2.0/",
			APIKey:         "",
			Timeout:        10 * time.Second,
			MaxRequests:    2,
			Window:         time.Second,
			MinInterval:    500 * time.Millisecond,
			MaxAttempts:    3,
			BackoffBase:    2 * time.Second,
			BackoffMax:     8 * time.Second,
			CooldownOn429:  3 * time.Second,
			MaxCooldown:    30 * time.Second,
			SimilarLimit:   6,
			TopTracksLimit: 5,
			TopTagsLimit:   5,
			ExcludedTags:   []string{"seen live", "fm"},
		},
		Expand: ExpandConfig{
			CapPerCall:      50,
			Timeout:         5 * time.Minute,
			UserMaxRequests: 3,
			UserWindow:      time.Minute,
		},
		Rank: RankConfig{
			LikedThreshold: 5,
			Trees:          50,
			MaxDepth:       8,
			MinLeafSize:    1,
		},
		Batch: BatchConfig{
			PageSize: 10,
			TTL:      time.Hour,
			MaxUsers: 1000,
		},
		Store: StoreConfig{
			Backend: "badger",
			Path:    "/data/trackpool",
		},
		Events: EventsConfig{
			NATSURL:          "",
			Embedded:         false,
			EmbeddedHost:     "127.0.0.1",
			EmbeddedPort:     4222,
			QueueGroupPrefix: "",
			SubscribersCount: 1,
			BufferSize:       256,
			CloseTimeout:     10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration in layers:
//  1. Struct defaults
//  2. Config file (if found)
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first default path found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are keys that accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"lastfm.excluded_tags",
}

// processSliceFields splits comma-separated string values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	"http_port":          "server.port",
	"http_host":          "server.host",
	"http_timeout":       "server.timeout",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"environment":        "server.environment",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"lastfm_base_url":         "lastfm.base_url",
	"lastfm_api_key":          "lastfm.api_key",
	"lastfm_timeout":          "lastfm.timeout",
	"lastfm_max_requests":     "lastfm.max_requests",
	"lastfm_window":           "lastfm.window",
	"lastfm_min_interval":     "lastfm.min_interval",
	"lastfm_max_attempts":     "lastfm.max_attempts",
	"lastfm_backoff_base":     "lastfm.backoff_base",
	"lastfm_backoff_max":      "lastfm.backoff_max",
	"lastfm_cooldown_on_429":  "lastfm.cooldown_on_429",
	"lastfm_max_cooldown":     "lastfm.max_cooldown",
	"lastfm_similar_limit":    "lastfm.similar_limit",
	"lastfm_top_tracks_limit": "lastfm.top_tracks_limit",
	"lastfm_top_tags_limit":   "lastfm.top_tags_limit",
	"lastfm_excluded_tags":    "lastfm.excluded_tags",

	"expand_cap_per_call":      "expand.cap_per_call",
	"expand_timeout":           "expand.timeout",
	"expand_user_max_requests": "expand.user_max_requests",
	"expand_user_window":       "expand.user_window",
	"expand_seed":              "expand.seed",

	"rank_liked_threshold": "rank.liked_threshold",
	"rank_trees":           "rank.trees",
	"rank_max_depth":       "rank.max_depth",
	"rank_min_leaf_size":   "rank.min_leaf_size",
	"rank_seed":            "rank.seed",

	"batch_page_size": "batch.page_size",
	"batch_ttl":       "batch.ttl",
	"batch_max_users": "batch.max_users",

	"store_backend": "store.backend",
	"store_path":    "store.path",

	"nats_url":                "events.nats_url",
	"nats_embedded":           "events.embedded",
	"nats_embedded_host":      "events.embedded_host",
	"nats_embedded_port":      "events.embedded_port",
	"nats_queue_group_prefix": "events.queue_group_prefix",
	"nats_subscribers":        "events.subscribers_count",
	"events_buffer_size":      "events.buffer_size",
	"events_close_timeout":    "events.close_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its koanf path.
// Unmapped variables return "" and are skipped so the process
// environment cannot pollute the config tree.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
