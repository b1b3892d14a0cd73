// Package publisher fans captured documents out to NATS so dashboard
// gateways and other consumers can react without polling this service.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tripsync/tripsync/internal/snapshot"
)

// Metrics receives publish observations.
type Metrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) NATSPublishedInc()  {}
func (NopMetrics) NATSPublishErrInc() {}

// UpdateMessage is the wire form of an itinerary snapshot update.
type UpdateMessage struct {
	SnapshotID  string          `json:"snapshotId"`
	Fingerprint string          `json:"fingerprint"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	Payload     json.RawMessage `json:"payload"`
}

// NATSPublisher publishes document updates under a subject prefix:
// <prefix>.itinerary.updates and <prefix>.route.updates.
type NATSPublisher struct {
	nc      *nats.Conn
	prefix  string
	metrics Metrics
	logger  zerolog.Logger
}

// NewNATSPublisher connects to NATS and returns a publisher.
func NewNATSPublisher(url, subjectPrefix string, m Metrics, logger zerolog.Logger) (*NATSPublisher, error) {
	if m == nil {
		m = NopMetrics{}
	}

	log := logger.With().Str("component", "nats_publisher").Logger()

	nc, err := nats.Connect(url,
		nats.Name("tripsync"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			log.Warn().Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{
		nc:      nc,
		prefix:  subjectPrefix,
		metrics: m,
		logger:  log,
	}, nil
}

// PublishUpdate publishes an itinerary snapshot update message.
func (p *NATSPublisher) PublishUpdate(_ context.Context, snap *snapshot.Snapshot) error {
	msg := UpdateMessage{
		SnapshotID:  snap.ID,
		Fingerprint: snap.Fingerprint,
		FetchedAt:   snap.FetchedAt,
		Payload:     snap.Raw,
	}

	b, err := json.Marshal(msg)
	if err != nil {
		p.metrics.NATSPublishErrInc()
		return fmt.Errorf("marshal update message: %w", err)
	}

	return p.publish(p.prefix+".itinerary.updates", b)
}

// PublishRoute publishes a raw route document.
func (p *NATSPublisher) PublishRoute(_ context.Context, raw json.RawMessage) error {
	return p.publish(p.prefix+".route.updates", raw)
}

func (p *NATSPublisher) publish(subject string, data []byte) error {
	if err := p.nc.Publish(subject, data); err != nil {
		p.metrics.NATSPublishErrInc()
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	p.metrics.NATSPublishedInc()

	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.logger.Warn().Err(err).Msg("drain nats connection")
		}
		p.nc.Close()
	}
}
