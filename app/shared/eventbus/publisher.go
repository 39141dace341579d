package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
)

// Domain event topics.
const (
	TopicAssignment  = "tournament.assignment.v1"
	TopicMoved       = "tournament.moved.v1"
	TopicRoster      = "tournament.roster.v1"
	TopicInputs      = "scoring.inputs.v1"
	TopicDefinitions = "scoring.definitions.v1"
)

// Publisher emits domain events after a roster commit.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

// WatermillPublisher marshals payloads to JSON watermill messages.
type WatermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

var _ Publisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher wraps any watermill publisher.
func NewWatermillPublisher(publisher message.Publisher, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, logger: logger}
}

// NewNATSPublisher connects a core-NATS watermill publisher to natsURL.
func NewNATSPublisher(natsURL string, logger *slog.Logger, opts ...nc.Option) (*WatermillPublisher, error) {
	natsOpts := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
	}
	natsOpts = append(natsOpts, opts...)

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:               natsURL,
			Marshaler:         &nats.NATSMarshaler{},
			NatsOptions:       natsOpts,
			SubjectCalculator: nats.DefaultSubjectCalculator,
			JetStream:         nats.JetStreamConfig{Disabled: true},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		logger.Error("Failed to create NATS publisher", observability.Error(err))
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	return NewWatermillPublisher(publisher, logger), nil
}

// NewGoChannelPublisher returns an in-process publisher and the pubsub behind
// it so callers can subscribe. Used in tests and when NATS is not configured.
func NewGoChannelPublisher(logger *slog.Logger) (*WatermillPublisher, *gochannel.GoChannel) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
		Persistent:          true,
	}, watermill.NewSlogLogger(logger))
	return NewWatermillPublisher(pubsub, logger), pubsub
}

func (p *WatermillPublisher) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	ctx, correlationID := observability.EnsureCorrelationID(ctx)
	middleware.SetCorrelationID(correlationID, msg)
	msg.Metadata.Set("topic", topic)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "Published domain event",
		observability.ExtractCorrelationID(ctx),
		slog.String("topic", topic),
		slog.String("message_id", msg.UUID),
	)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }
