// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/config"
	"github.com/tomtom215/trackpool/internal/metrics"
)

// NATS connection defaults
const (
	maxReconnects  = -1 // reconnect forever
	reconnectWait  = 2 * time.Second
	ackWaitTimeout = 30 * time.Second
)

// ErrBusClosed is returned when publishing after Close.
var ErrBusClosed = errors.New("event bus closed")

// Bus publishes and receives pool-mutation events. Each Bus has a unique
// origin so a replica can recognise its own events.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	origin     string
	transport  string
	logger     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBus builds an in-process bus when url is empty and a NATS bus otherwise.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBus(cfg *config.EventsConfig, url string, logger zerolog.Logger) (*Bus, error) {
	logger = logger.With().Str("component", "events").Logger()
	wmLogger := NewWatermillLogger(logger)

	b := &Bus{origin: uuid.New().String(), logger: logger}

	if url == "" {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.BufferSize}, wmLogger)
		b.publisher, b.subscriber, b.transport = ch, ch, "gochannel"
		return b, nil
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOptions(wmLogger, "trackpool-publisher"),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: cfg.QueueGroupPrefix,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   ackWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOptions(wmLogger, "trackpool-subscriber"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	b.publisher, b.subscriber, b.transport = pub, sub, "nats"
	logger.Info().Str("url", url).Str("origin", b.origin).Msg("Event bus connected to NATS")
	return b, nil
}

// natsOptions returns connection options with reconnection handling.
func natsOptions(logger watermill.LoggerAdapter, name string) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name(name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(maxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// Origin identifies this bus in published events.
func (b *Bus) Origin() string {
	return b.origin
}

// Transport is "gochannel" or "nats".
func (b *Bus) Transport() string {
	return b.transport
}

// PoolMutated publishes a pool-mutation event for userID.
func (b *Bus) PoolMutated(_ context.Context, userID, reason string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	msg, err := newMessage(&PoolMutated{
		UserID:     userID,
		Reason:     reason,
		Origin:     b.origin,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		metrics.RecordEventPublishError()
		return err
	}
	if err := b.publisher.Publish(TopicPoolMutated, msg); err != nil {
		metrics.RecordEventPublishError()
		return fmt.Errorf("publish %s: %w", TopicPoolMutated, err)
	}
	metrics.RecordEventPublished(reason)
	return nil
}

// Subscribe returns the stream of pool-mutation messages. The channel closes
// when ctx is cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, TopicPoolMutated)
}

// Close shuts down the publisher and subscriber. Safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if b.transport == "gochannel" {
		return b.publisher.Close()
	}
	return errors.Join(b.publisher.Close(), b.subscriber.Close())
}
