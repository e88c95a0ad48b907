// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/metrics"
)

// Consumption results recorded per message.
const (
	ResultInvalidated = "invalidated"
	ResultOwn         = "own"
	ResultMalformed   = "malformed"
)

// Invalidator drops cached batches for a user on this replica only.
type Invalidator interface {
	InvalidateLocal(userID, reason string) bool
}

// InvalidationListener applies pool-mutation events published by other
// replicas to the local batch cache. It runs as a supervised service.
type InvalidationListener struct {
	bus         *Bus
	invalidator Invalidator
	logger      zerolog.Logger
}

// NewInvalidationListener creates a listener for bus.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewInvalidationListener(bus *Bus, invalidator Invalidator, logger zerolog.Logger) *InvalidationListener {
	return &InvalidationListener{
		bus:         bus,
		invalidator: invalidator,
		logger:      logger.With().Str("component", "invalidation-listener").Logger(),
	}
}

// Serve consumes events until ctx is cancelled.
func (l *InvalidationListener) Serve(ctx context.Context) error {
	messages, err := l.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicPoolMutated, err)
	}

	l.logger.Info().Str("transport", l.bus.Transport()).Msg("Invalidation listener started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("event subscription closed")
			}
			l.handle(msg)
		}
	}
}

// handle applies one message. Every message is acked: a malformed event
// would never parse on redelivery either.
func (l *InvalidationListener) handle(msg *message.Message) string {
	defer msg.Ack()

	event, err := decodeMessage(msg)
	if err != nil {
		l.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed event")
		metrics.RecordEventConsumed(ResultMalformed)
		return ResultMalformed
	}

	if event.Origin == l.bus.Origin() {
		metrics.RecordEventConsumed(ResultOwn)
		return ResultOwn
	}

	dropped := l.invalidator.InvalidateLocal(event.UserID, event.Reason)
	l.logger.Debug().
		Str("user_id", event.UserID).
		Str("reason", event.Reason).
		Str("origin", event.Origin).
		Bool("dropped", dropped).
		Msg("Applied remote invalidation")
	metrics.RecordEventConsumed(ResultInvalidated)
	return ResultInvalidated
}

func (l *InvalidationListener) String() string {
	return "invalidation-listener"
}
