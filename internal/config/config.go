// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	LastFM   LastFMConfig   `koanf:"lastfm"`
	Expand   ExpandConfig   `koanf:"expand"`
	Rank     RankConfig     `koanf:"rank"`
	Batch    BatchConfig    `koanf:"batch"`
	Store    StoreConfig    `koanf:"store"`
	Events   EventsConfig   `koanf:"events"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         int           `koanf:"port"`
	Host         string        `koanf:"host"`
	Timeout      time.Duration `koanf:"timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	Environment  string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds API rate limiting and CORS settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LastFMConfig holds settings for the similarity source.
type LastFMConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// MaxRequests and Window describe the shared sliding-window budget for all users.
	MaxRequests int           `koanf:"max_requests"`
	Window      time.Duration `koanf:"window"`

	// MinInterval is the minimum spacing between two outbound calls.
	MinInterval time.Duration `koanf:"min_interval"`

	MaxAttempts   int           `koanf:"max_attempts"`
	BackoffBase   time.Duration `koanf:"backoff_base"`
	BackoffMax    time.Duration `koanf:"backoff_max"`
	CooldownOn429 time.Duration `koanf:"cooldown_on_429"`
	// MaxCooldown caps a server-supplied Retry-After.
	MaxCooldown    time.Duration `koanf:"max_cooldown"`
	SimilarLimit   int           `koanf:"similar_limit"`
	TopTracksLimit int           `koanf:"top_tracks_limit"`
	TopTagsLimit   int           `koanf:"top_tags_limit"`
	ExcludedTags   []string      `koanf:"excluded_tags"`
}

// ExpandConfig holds pool expansion settings
type ExpandConfig struct {
	CapPerCall      int           `koanf:"cap_per_call"`
	Timeout         time.Duration `koanf:"timeout"`
	UserMaxRequests int           `koanf:"user_max_requests"`
	UserWindow      time.Duration `koanf:"user_window"`
	Seed            int64         `koanf:"seed"` // 0 = time based
}

// RankConfig holds ranking engine settings
type RankConfig struct {
	LikedThreshold int   `koanf:"liked_threshold"`
	Trees          int   `koanf:"trees"`
	MaxDepth       int   `koanf:"max_depth"`
	MinLeafSize    int   `koanf:"min_leaf_size"`
	Seed           int64 `koanf:"seed"` // 0 = time based
}

// BatchConfig holds per-user batch cache settings
type BatchConfig struct {
	PageSize int           `koanf:"page_size"`
	TTL      time.Duration `koanf:"ttl"`
	MaxUsers int           `koanf:"max_users"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `koanf:"backend"` // badger or memory
	Path    string `koanf:"path"`
}

// EventsConfig holds pool-mutation event transport settings.
// With NATSURL empty and Embedded false, events stay in-process.
type EventsConfig struct {
	NATSURL          string        `koanf:"nats_url"`
	Embedded         bool          `koanf:"embedded"`
	EmbeddedHost     string        `koanf:"embedded_host"`
	EmbeddedPort     int           `koanf:"embedded_port"`
	QueueGroupPrefix string        `koanf:"queue_group_prefix"`
	SubscribersCount int           `koanf:"subscribers_count"`
	BufferSize       int64         `koanf:"buffer_size"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
}

// Distributed reports whether events cross process boundaries.
func (e *EventsConfig) Distributed() bool {
	return e.NATSURL != "" || e.Embedded
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// MaintenanceInterval is how often limiter and cache sweeps run.
func (c *Config) MaintenanceInterval() time.Duration {
	interval := c.Batch.TTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration from defaults, an optional YAML file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
