// Package poll implements the adaptive polling engine: a change detector
// over canonical payload fingerprints and a scheduler that switches between
// normal and fast cadence in response to user activity signals.
package poll

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripsync/tripsync/internal/backend"
	"github.com/tripsync/tripsync/internal/itinerary"
)

// Default cadence values.
const (
	DefaultNormalInterval = 3 * time.Second
	DefaultFastInterval   = 300 * time.Millisecond
	DefaultFastWindow     = 30 * time.Second
)

// Source fetches the latest raw document from the backend.
type Source interface {
	Fetch(ctx context.Context) (json.RawMessage, error)
	Name() string
}

// Handler applies a document whose content differs from the last applied
// one. Invoked from the scheduler's own loop, never after Stop returns.
type Handler interface {
	HandleUpdate(ctx context.Context, raw json.RawMessage) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, raw json.RawMessage) error

// HandleUpdate calls f.
func (f HandlerFunc) HandleUpdate(ctx context.Context, raw json.RawMessage) error {
	return f(ctx, raw)
}

// Metrics receives scheduler observations. Implementations must be safe for
// concurrent use.
type Metrics interface {
	CycleCompleted(source string, d time.Duration)
	CycleFailed(source, reason string)
	TickSkipped(source string)
	ChangeDetected(source string)
	FastEntered(source string)
	FastExited(source, reason string)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) CycleCompleted(string, time.Duration) {}
func (NopMetrics) CycleFailed(string, string)           {}
func (NopMetrics) TickSkipped(string)                   {}
func (NopMetrics) ChangeDetected(string)                {}
func (NopMetrics) FastEntered(string)                   {}
func (NopMetrics) FastExited(string, string)            {}

// Config holds configuration for a scheduler instance.
type Config struct {
	// Source to poll (required).
	Source Source

	// Handler applied on new content (required).
	Handler Handler

	// NormalInterval is the steady-state cadence. Default: 3s.
	NormalInterval time.Duration

	// FastInterval is the boosted cadence. Default: 300ms.
	FastInterval time.Duration

	// FastWindow bounds how long fast mode may last without an observed
	// change before reverting. Default: 30s.
	FastWindow time.Duration

	// Logger for scheduler operations.
	Logger zerolog.Logger

	// Metrics sink (optional).
	Metrics Metrics
}

// State is a snapshot of the scheduler's poll state for the ops surface.
type State struct {
	IntervalMS      int64  `json:"intervalMs"`
	Fast            bool   `json:"isFast"`
	LastFingerprint string `json:"lastPayloadFingerprint,omitempty"`
	SkippedTicks    int64  `json:"skippedTicks"`
}

// Scheduler drives fetch-normalize-detect-apply cycles for one document.
// One instance per polled document; create with New, drive with Start, and
// dispose with Stop. State is never persisted.
type Scheduler struct {
	source  Source
	handler Handler
	logger  zerolog.Logger
	metrics Metrics

	normalInterval time.Duration
	fastInterval   time.Duration
	fastWindow     time.Duration

	boostC    chan struct{}
	stopC     chan struct{}
	doneC     chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once

	mu              sync.Mutex
	started         bool
	fast            bool
	lastFingerprint string
	skippedTicks    int64
}

// New creates a scheduler. Start must be called to begin polling.
func New(cfg Config) *Scheduler {
	if cfg.NormalInterval <= 0 {
		cfg.NormalInterval = DefaultNormalInterval
	}
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = DefaultFastInterval
	}
	if cfg.FastWindow <= 0 {
		cfg.FastWindow = DefaultFastWindow
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &Scheduler{
		source:         cfg.Source,
		handler:        cfg.Handler,
		logger:         cfg.Logger.With().Str("source", cfg.Source.Name()).Logger(),
		metrics:        metrics,
		normalInterval: cfg.NormalInterval,
		fastInterval:   cfg.FastInterval,
		fastWindow:     cfg.FastWindow,
		boostC:         make(chan struct{}, 1),
		stopC:          make(chan struct{}),
		doneC:          make(chan struct{}),
	}
}

// Start launches the polling loop. Subsequent calls are no-ops.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()
		go s.run(ctx)
	})
}

// Stop shuts the scheduler down: the interval and any armed safety timeout
// are cancelled and no further handler invocations happen, even if an
// in-flight fetch completes later. Blocks until the loop has exited.
// Safe to call on a scheduler that was never started.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopC)
	})
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	<-s.doneC
}

// Boost requests fast mode, typically on an activity signal. Signals while
// already fast are ignored; the safety window from the first signal stands.
func (s *Scheduler) Boost() {
	select {
	case s.boostC <- struct{}{}:
	default:
	}
}

// State returns a snapshot of the current poll state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	interval := s.normalInterval
	if s.fast {
		interval = s.fastInterval
	}
	return State{
		IntervalMS:      interval.Milliseconds(),
		Fast:            s.fast,
		LastFingerprint: s.lastFingerprint,
		SkippedTicks:    s.skippedTicks,
	}
}

type cycleResult struct {
	raw         json.RawMessage
	fingerprint string
	changed     bool
	fresh       bool // content differs from last applied, including first fetch
	noContent   bool
	err         error
	elapsed     time.Duration
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneC)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tick := time.NewTimer(s.interval())
	defer tick.Stop()

	// Safety timeout channel; nil while not in fast mode.
	var fastTimer *time.Timer
	var fastC <-chan time.Time
	defer func() {
		if fastTimer != nil {
			fastTimer.Stop()
		}
	}()

	// Non-nil while a cycle is in flight. Buffered so a late result from a
	// torn-down scheduler never blocks its goroutine.
	var cycleC chan cycleResult

	s.logger.Info().
		Dur("normal_interval", s.normalInterval).
		Dur("fast_interval", s.fastInterval).
		Msg("polling started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopC:
			return

		case <-s.boostC:
			if s.isFast() {
				s.logger.Debug().Msg("activity signal ignored, already fast")
				continue
			}
			s.setFast(true)
			s.metrics.FastEntered(s.source.Name())
			fastTimer = time.NewTimer(s.fastWindow)
			fastC = fastTimer.C
			resetTimer(tick, s.fastInterval)
			s.logger.Info().Dur("window", s.fastWindow).Msg("fast polling engaged")

		case <-fastC:
			// Unconditional revert: fast mode never outlives its window.
			s.setFast(false)
			s.metrics.FastExited(s.source.Name(), "timeout")
			fastTimer, fastC = nil, nil
			resetTimer(tick, s.normalInterval)
			s.logger.Info().Msg("fast polling window elapsed, back to normal")

		case <-tick.C:
			if cycleC != nil {
				// Previous cycle still pending: skip, never queue.
				s.markSkipped()
				s.metrics.TickSkipped(s.source.Name())
			} else {
				cycleC = make(chan cycleResult, 1)
				go s.runCycle(ctx, s.fingerprint(), cycleC)
			}
			tick.Reset(s.interval())

		case res := <-cycleC:
			cycleC = nil
			if s.apply(ctx, res) {
				// Change observed while fast: revert now and disarm the
				// safety timeout so it cannot fire a duplicate transition.
				if fastTimer != nil {
					fastTimer.Stop()
					fastTimer, fastC = nil, nil
				}
				resetTimer(tick, s.normalInterval)
			}
		}
	}
}

// runCycle performs one fetch and detection off the loop goroutine. The
// result is applied by the loop, which is the liveness gate: once the loop
// has exited, the buffered send below is simply never read.
func (s *Scheduler) runCycle(ctx context.Context, prev string, out chan<- cycleResult) {
	start := time.Now()
	res := cycleResult{}

	raw, err := s.source.Fetch(ctx)
	switch {
	case errors.Is(err, backend.ErrNoContent):
		res.noContent = true
	case err != nil:
		res.err = err
	default:
		det, derr := DetectChange(prev, raw)
		if derr != nil {
			res.err = derr
		} else {
			res.raw = raw
			res.fingerprint = det.Fingerprint
			res.changed = det.Changed
			res.fresh = prev != det.Fingerprint
		}
	}

	res.elapsed = time.Since(start)
	out <- res
}

// apply folds a cycle result into the poll state. Returns true when the
// result triggered a fast-to-normal transition.
func (s *Scheduler) apply(ctx context.Context, res cycleResult) bool {
	name := s.source.Name()

	switch {
	case res.err != nil:
		// Every failure is recovered locally: log, keep last good state,
		// and let the next tick proceed on schedule.
		s.metrics.CycleFailed(name, failureReason(res.err))
		s.logger.Warn().Err(res.err).Msg("poll cycle failed, keeping previous state")
		return false
	case res.noContent:
		s.metrics.CycleCompleted(name, res.elapsed)
		s.logger.Debug().Msg("no content yet")
		return false
	}

	s.setFingerprint(res.fingerprint)
	s.metrics.CycleCompleted(name, res.elapsed)

	if res.fresh {
		if err := s.handler.HandleUpdate(ctx, res.raw); err != nil {
			s.logger.Error().Err(err).Msg("update handler failed")
		}
	}

	if res.changed {
		s.metrics.ChangeDetected(name)
		s.logger.Info().Str("fingerprint", res.fingerprint).Msg("itinerary content changed")
		if s.isFast() {
			s.setFast(false)
			s.metrics.FastExited(name, "change")
			return true
		}
	}
	return false
}

func (s *Scheduler) interval() time.Duration {
	if s.isFast() {
		return s.fastInterval
	}
	return s.normalInterval
}

func (s *Scheduler) isFast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fast
}

func (s *Scheduler) setFast(fast bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fast = fast
}

func (s *Scheduler) fingerprint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFingerprint
}

func (s *Scheduler) setFingerprint(fp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFingerprint = fp
}

func (s *Scheduler) markSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skippedTicks++
}

// resetTimer safely reprograms a loop-owned timer.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func failureReason(err error) string {
	var httpErr *backend.HTTPError
	switch {
	case errors.Is(err, itinerary.ErrParse):
		return "parse"
	case errors.As(err, &httpErr):
		return "http"
	default:
		return "network"
	}
}
