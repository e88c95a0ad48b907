// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// TopicPoolMutated carries PoolMutated events.
const TopicPoolMutated = "trackpool.pool_mutated"

// metadataOrigin duplicates the origin in message metadata for tracing.
const metadataOrigin = "origin"

// PoolMutated announces that a user's pool, liked set or labels changed and
// any cached batches for the user are stale.
type PoolMutated struct {
	UserID     string    `json:"user_id"`
	Reason     string    `json:"reason"`
	Origin     string    `json:"origin"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Validate checks the required fields.
func (e *PoolMutated) Validate() error {
	if e.UserID == "" {
		return errors.New("user_id is required")
	}
	if e.Origin == "" {
		return errors.New("origin is required")
	}
	return nil
}

// newMessage serializes e into a watermill message with a fresh UUID.
func newMessage(e *PoolMutated) (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataOrigin, e.Origin)
	return msg, nil
}

// decodeMessage parses and validates a PoolMutated payload.
func decodeMessage(msg *message.Message) (*PoolMutated, error) {
	var e PoolMutated
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return &e, nil
}
