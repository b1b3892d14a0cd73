package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripsync/tripsync/internal/itinerary"
	"github.com/tripsync/tripsync/internal/poll"
)

// Publisher broadcasts a captured snapshot to downstream consumers.
type Publisher interface {
	PublishUpdate(ctx context.Context, snap *Snapshot) error
}

// Service turns fresh backend payloads into stored snapshots.
// It implements the poll scheduler's update handler.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher attaches a downstream publisher. Publish failures are
// logged but never fail the update, so a broker outage cannot stall
// the poll loop.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// NewService creates a snapshot service.
func NewService(repo Repository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logger.With().Str("component", "snapshot").Logger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// HandleUpdate normalizes a fresh payload and stores it as the latest
// snapshot.
func (s *Service) HandleUpdate(ctx context.Context, raw json.RawMessage) error {
	itineraries, err := itinerary.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalize payload: %w", err)
	}

	detection, err := poll.Fingerprint(raw)
	if err != nil {
		return fmt.Errorf("fingerprint payload: %w", err)
	}

	snap := &Snapshot{
		ID:          uuid.NewString(),
		Raw:         raw,
		Itineraries: itineraries,
		Fingerprint: detection,
		FetchedAt:   s.now().UTC(),
	}

	if err := s.repo.SaveLatest(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.Debug().
		Str("snapshot_id", snap.ID).
		Int("itineraries", len(itineraries)).
		Msg("snapshot stored")

	if s.publisher != nil {
		if err := s.publisher.PublishUpdate(ctx, snap); err != nil {
			s.logger.Warn().Err(err).Msg("publish snapshot update")
		}
	}

	return nil
}

// Latest returns the most recent snapshot.
func (s *Service) Latest(ctx context.Context) (*Snapshot, error) {
	return s.repo.Latest(ctx)
}
