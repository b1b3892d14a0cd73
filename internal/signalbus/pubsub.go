package signalbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubBridge subscribes to a Cloud Pub/Sub subscription carrying
// itinerary-request events and republishes them into the in-process broker.
// Used when the chat backend runs out of process.
type PubSubBridge struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	broker           *Broker
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the bridge.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Broker           *Broker
	Logger           zerolog.Logger
}

// requestEvent is the wire form of an itinerary-request event.
type requestEvent struct {
	// Timestamp is epoch milliseconds, matching the dashboard's event
	// payload.
	Timestamp int64 `json:"timestamp"`
}

// NewPubSubBridge creates the bridge and its Pub/Sub client.
func NewPubSubBridge(ctx context.Context, cfg PubSubConfig) (*PubSubBridge, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10

	return &PubSubBridge{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		broker:           cfg.Broker,
		logger:           cfg.Logger,
	}, nil
}

// Start blocks receiving messages until ctx is cancelled.
func (b *PubSubBridge) Start(ctx context.Context) error {
	b.logger.Info().
		Str("subscription", b.subscriptionName).
		Msg("starting itinerary-request bridge")

	return b.subscriber.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
		b.handleMessage(msg)
	})
}

// Close closes the Pub/Sub client.
func (b *PubSubBridge) Close() error {
	return b.client.Close()
}

func (b *PubSubBridge) handleMessage(msg *pubsub.Message) {
	var event requestEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		b.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("malformed itinerary-request event")
		// Ack anyway: redelivering a malformed event cannot help.
		msg.Ack()
		return
	}

	ts := time.Now()
	if event.Timestamp > 0 {
		ts = time.UnixMilli(event.Timestamp)
	}
	b.broker.Publish(Signal{Timestamp: ts})

	b.logger.Debug().
		Str("message_id", msg.ID).
		Time("signal_time", ts).
		Msg("itinerary-request signal bridged")
	msg.Ack()
}
