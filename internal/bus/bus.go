// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package bus is the event backplane between the REST API and the
// realtime fan-out layer. REST handlers publish domain events; the
// realtime hub subscribes and forwards them to connected clients.
//
// Two transports are supported: an in-process Go channel pub/sub for
// single-instance deployments, and NATS JetStream (external or
// embedded) when multiple instances must share the same event stream.
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cineshare/cineshare/internal/config"
	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/metrics"
)

// Topics carried on the bus.
const (
	TopicPresenceChanged     = "presence.changed"
	TopicNotificationCreated = "notification.created"
	TopicFeedActivity        = "feed.activity"
	TopicConversationMessage = "conversation.message"
	TopicConversationTyping  = "conversation.typing"
)

// Bus wraps a Watermill publisher/subscriber pair behind a single
// handle with circuit breaker protection on the publish path.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[any]
	embedded   *EmbeddedServer
	logger     watermill.LoggerAdapter

	// shared marks channel mode, where publisher and subscriber are
	// the same object and must only be closed once.
	shared bool

	mu     sync.RWMutex
	closed bool
}

// New creates a Bus for the configured transport. In channel mode the
// publisher and subscriber share one in-process pub/sub. In nats mode
// the bus connects to cfg.URL, starting an embedded JetStream server
// first when cfg.Embedded is set.
func New(cfg *config.BusConfig) (*Bus, error) {
	logger := newLoggerAdapter(logging.WithComponent("bus"))

	b := &Bus{logger: logger}
	b.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "bus-publish",
		MaxRequests: 3,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Bus circuit breaker state change")
		},
	})

	switch cfg.Mode {
	case config.BusModeChannel:
		ps := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, logger)
		b.publisher = ps
		b.subscriber = ps
		b.shared = true

	case config.BusModeNATS:
		url := cfg.URL
		if cfg.Embedded {
			es, err := NewEmbeddedServer(cfg)
			if err != nil {
				return nil, fmt.Errorf("start embedded nats: %w", err)
			}
			b.embedded = es
			url = es.ClientURL()
		}
		pub, sub, err := newNATSTransport(url, logger)
		if err != nil {
			if b.embedded != nil {
				_ = b.embedded.Shutdown(context.Background())
			}
			return nil, err
		}
		b.publisher = pub
		b.subscriber = sub

	default:
		return nil, fmt.Errorf("unknown bus mode %q", cfg.Mode)
	}

	logging.Info().Str("mode", cfg.Mode).Msg("Event bus ready")
	return b, nil
}

// Publish serializes payload as JSON and publishes it on topic.
// The message UUID doubles as the NATS message ID for deduplication.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bus is closed")
	}
	b.mu.RUnlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	_, err = b.breaker.Execute(func() (any, error) {
		return nil, b.publisher.Publish(topic, msg)
	})
	if err != nil {
		metrics.RecordBusError(topic)
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.RecordBusPublish(topic)
	return nil
}

// Subscribe returns the message channel for topic. The channel closes
// when ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

// Decode unmarshals a bus message payload into v.
func Decode(msg *message.Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("decode bus message %s: %w", msg.UUID, err)
	}
	return nil
}

// Close shuts down the transport and, if present, the embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if !b.shared {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if b.embedded != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.embedded.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown embedded nats: %w", err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
