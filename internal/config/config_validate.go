// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks the configuration and reports every invalid field.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateLastFM,
		c.validateExpand,
		c.validateRank,
		c.validateBatch,
		c.validateStore,
		c.validateEvents,
		c.validateLogging,
	}

	var errs []error
	for _, validator := range validators {
		if err := validator(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be one of development, staging, production")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLastFM() error {
	u, err := url.Parse(c.LastFM.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("LASTFM_BASE_URL must be an absolute http(s) URL")
	}
	if c.LastFM.MaxRequests < 1 || c.LastFM.Window <= 0 {
		return fmt.Errorf("LASTFM_MAX_REQUESTS and LASTFM_WINDOW must be positive")
	}
	if c.LastFM.MaxAttempts < 1 || c.LastFM.MaxAttempts > 10 {
		return fmt.Errorf("LASTFM_MAX_ATTEMPTS must be between 1 and 10")
	}
	if c.LastFM.BackoffBase < 0 || c.LastFM.BackoffMax < c.LastFM.BackoffBase {
		return fmt.Errorf("LASTFM_BACKOFF_MAX must be at least LASTFM_BACKOFF_BASE")
	}
	if c.LastFM.CooldownOn429 < 0 || c.LastFM.MaxCooldown < c.LastFM.CooldownOn429 {
		return fmt.Errorf("LASTFM_MAX_COOLDOWN must be at least LASTFM_COOLDOWN_ON_429")
	}
	if c.LastFM.Timeout <= 0 {
		return fmt.Errorf("LASTFM_TIMEOUT must be positive")
	}
	if c.LastFM.SimilarLimit < 1 || c.LastFM.TopTracksLimit < 1 || c.LastFM.TopTagsLimit < 1 {
		return fmt.Errorf("LASTFM lookup limits must be at least 1")
	}
	return nil
}

func (c *Config) validateExpand() error {
	if c.Expand.CapPerCall < 1 {
		return fmt.Errorf("EXPAND_CAP_PER_CALL must be at least 1")
	}
	if c.Expand.Timeout < time.Second {
		return fmt.Errorf("EXPAND_TIMEOUT must be at least 1s")
	}
	if c.Expand.UserMaxRequests < 1 || c.Expand.UserWindow <= 0 {
		return fmt.Errorf("EXPAND_USER_MAX_REQUESTS and EXPAND_USER_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateRank() error {
	if c.Rank.LikedThreshold < 0 {
		return fmt.Errorf("RANK_LIKED_THRESHOLD must not be negative")
	}
	if c.Rank.Trees < 1 || c.Rank.Trees > 1000 {
		return fmt.Errorf("RANK_TREES must be between 1 and 1000")
	}
	if c.Rank.MaxDepth < 1 || c.Rank.MinLeafSize < 1 {
		return fmt.Errorf("RANK_MAX_DEPTH and RANK_MIN_LEAF_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.PageSize < 1 || c.Batch.PageSize > 500 {
		return fmt.Errorf("BATCH_PAGE_SIZE must be between 1 and 500")
	}
	if c.Batch.TTL <= 0 {
		return fmt.Errorf("BATCH_TTL must be positive")
	}
	if c.Batch.MaxUsers < 1 {
		return fmt.Errorf("BATCH_MAX_USERS must be at least 1")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "memory":
		return nil
	case "badger":
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("STORE_PATH is required for the badger backend")
		}
		return nil
	default:
		return fmt.Errorf("STORE_BACKEND must be badger or memory, got %q", c.Store.Backend)
	}
}

func (c *Config) validateEvents() error {
	if c.Events.NATSURL != "" {
		u, err := url.Parse(c.Events.NATSURL)
		if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") {
			return fmt.Errorf("NATS_URL must use the nats:// or tls:// scheme")
		}
	}
	if c.Events.Embedded && (c.Events.EmbeddedPort < 1 || c.Events.EmbeddedPort > 65535) {
		return fmt.Errorf("NATS_EMBEDDED_PORT must be between 1 and 65535")
	}
	if c.Events.SubscribersCount < 1 || c.Events.SubscribersCount > 32 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and 32")
	}
	if c.Events.BufferSize < 0 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "off":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
