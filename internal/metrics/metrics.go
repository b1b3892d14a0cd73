// Package metrics exposes Prometheus instrumentation for the sync engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Collector holds all engine metrics on a private registry, implementing
// the poll scheduler's Metrics interface.
type Collector struct {
	reg *prometheus.Registry

	CyclesCompleted *prometheus.CounterVec // source label
	CyclesFailed    *prometheus.CounterVec // source, reason labels
	TicksSkipped    *prometheus.CounterVec // source label
	ChangesDetected *prometheus.CounterVec // source label
	FastEntries     *prometheus.CounterVec // source label
	FastExits       *prometheus.CounterVec // source, reason labels

	CycleDuration *prometheus.HistogramVec // source label

	SignalsPublished prometheus.Counter
	NATSPublished    prometheus.Counter
	NATSPublishErrs  prometheus.Counter
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		CyclesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripsync_poll_cycles_completed_total",
			Help: "Total completed poll cycles.",
		}, []string{"source"}),
		CyclesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripsync_poll_cycles_failed_total",
			Help: "Total failed poll cycles.",
		}, []string{"source", "reason"}),
		TicksSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripsync_poll_ticks_skipped_total",
			Help: "Total ticks skipped because a cycle was still in flight.",
		}, []string{"source"}),
		ChangesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripsync_poll_changes_detected_total",
			Help: "Total payload changes detected.",
		}, []string{"source"}),
		FastEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripsync_poll_fast_entries_total",
			Help: "Total transitions into fast polling.",
		}, []string{"source"}),
		FastExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripsync_poll_fast_exits_total",
			Help: "Total transitions out of fast polling.",
		}, []string{"source", "reason"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripsync_poll_cycle_duration_seconds",
			Help:    "Duration of a fetch-detect-apply poll cycle.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"source"}),
		SignalsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripsync_signals_published_total",
			Help: "Total itinerary request signals published.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripsync_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripsync_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
	}

	reg.MustRegister(
		c.CyclesCompleted, c.CyclesFailed, c.TicksSkipped,
		c.ChangesDetected, c.FastEntries, c.FastExits,
		c.CycleDuration,
		c.SignalsPublished, c.NATSPublished, c.NATSPublishErrs,
	)

	return c
}

// CycleCompleted records a finished poll cycle.
func (c *Collector) CycleCompleted(source string, d time.Duration) {
	c.CyclesCompleted.WithLabelValues(source).Inc()
	c.CycleDuration.WithLabelValues(source).Observe(d.Seconds())
}

// CycleFailed records a failed poll cycle.
func (c *Collector) CycleFailed(source, reason string) {
	c.CyclesFailed.WithLabelValues(source, reason).Inc()
}

// TickSkipped records a tick skipped due to an in-flight cycle.
func (c *Collector) TickSkipped(source string) {
	c.TicksSkipped.WithLabelValues(source).Inc()
}

// ChangeDetected records a detected payload change.
func (c *Collector) ChangeDetected(source string) {
	c.ChangesDetected.WithLabelValues(source).Inc()
}

// FastEntered records a transition into fast polling.
func (c *Collector) FastEntered(source string) {
	c.FastEntries.WithLabelValues(source).Inc()
}

// FastExited records a transition out of fast polling.
func (c *Collector) FastExited(source, reason string) {
	c.FastExits.WithLabelValues(source, reason).Inc()
}

// NATSPublishedInc records a successful NATS publish.
func (c *Collector) NATSPublishedInc() {
	c.NATSPublished.Inc()
}

// NATSPublishErrInc records a failed NATS publish.
func (c *Collector) NATSPublishErrInc() {
	c.NATSPublishErrs.Inc()
}

// Handler returns the scrape handler for the private registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	logger.Info().Str("addr", addr).Msg("metrics listening")

	return srv
}
