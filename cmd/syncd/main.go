// Package main provides the entrypoint for the TripSync sync engine.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripsync/tripsync/internal/api"
	"github.com/tripsync/tripsync/internal/api/middleware"
	"github.com/tripsync/tripsync/internal/backend"
	"github.com/tripsync/tripsync/internal/chat"
	"github.com/tripsync/tripsync/internal/config"
	"github.com/tripsync/tripsync/internal/database"
	"github.com/tripsync/tripsync/internal/metrics"
	"github.com/tripsync/tripsync/internal/poll"
	"github.com/tripsync/tripsync/internal/publisher"
	"github.com/tripsync/tripsync/internal/signalbus"
	"github.com/tripsync/tripsync/internal/snapshot"
	"github.com/tripsync/tripsync/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tripsync-syncd"

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	log := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting TripSync sync engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// HTTP metrics instruments
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}
	backendMetrics, err := middleware.NewBackendMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend metrics")
	}

	// Prometheus collector for the poll engine
	collector := metrics.NewCollector()
	metricsServer := collector.Serve(cfg.MetricsAddr, log)

	// Snapshot store: Postgres when configured, in-memory otherwise
	var repo snapshot.Repository
	if cfg.DatabaseURL != "" {
		pool, dbErr := database.Connect(ctx, database.Config{URL: cfg.DatabaseURL})
		if dbErr != nil {
			log.Fatal().Err(dbErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		repo = snapshot.NewPostgresRepository(pool)
		log.Info().Msg("snapshot store: postgres")
	} else {
		repo = snapshot.NewInMemoryRepository()
		log.Info().Msg("snapshot store: in-memory")
	}

	// Optional NATS fan-out for captured documents
	var (
		natsPub      *publisher.NATSPublisher
		snapshotOpts []snapshot.Option
	)
	if cfg.NATSURL != "" {
		var natsErr error
		natsPub, natsErr = publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, collector, log)
		if natsErr != nil {
			log.Fatal().Err(natsErr).Msg("failed to connect to nats")
		}
		defer natsPub.Close()
		snapshotOpts = append(snapshotOpts, snapshot.WithPublisher(natsPub))
		log.Info().Str("subject_prefix", cfg.NATSSubjectPrefix).Msg("nats publisher initialized")
	}

	snapshots := snapshot.NewService(repo, log, snapshotOpts...)

	// Backend client shared by both polled documents
	backendClient := backend.NewClient(backend.ClientConfig{
		BaseURL: cfg.BackendBaseURL,
		Timeout: cfg.BackendTimeout,
		Metrics: backendMetrics,
		Logger:  log,
	})

	// Itinerary scheduler: the dashboard's primary document
	itinerarySched := poll.New(poll.Config{
		Source:         backend.ItinerarySource{Client: backendClient},
		Handler:        snapshots,
		NormalInterval: cfg.NormalInterval,
		FastInterval:   cfg.FastInterval,
		FastWindow:     cfg.FastWindow,
		Logger:         log,
		Metrics:        collector,
	})

	// Route scheduler: map overlay document, fanned out to NATS when
	// configured
	routeSched := poll.New(poll.Config{
		Source: backend.RouteSource{Client: backendClient},
		Handler: poll.HandlerFunc(func(handlerCtx context.Context, raw json.RawMessage) error {
			if natsPub != nil {
				return natsPub.PublishRoute(handlerCtx, raw)
			}
			return nil
		}),
		NormalInterval: cfg.NormalInterval,
		FastInterval:   cfg.FastInterval,
		FastWindow:     cfg.FastWindow,
		Logger:         log,
		Metrics:        collector,
	})

	itinerarySched.Start(ctx)
	routeSched.Start(ctx)
	defer itinerarySched.Stop()
	defer routeSched.Stop()

	// Activity signals boost the itinerary poll cadence
	broker := signalbus.NewBroker()
	unsubscribe := broker.Subscribe(func(sig signalbus.Signal) {
		collector.SignalsPublished.Inc()
		log.Debug().Time("signal_at", sig.Timestamp).Msg("itinerary request signal")
		itinerarySched.Boost()
	})
	defer unsubscribe()

	classifier := chat.NewClassifier(chat.ClassifierConfig{
		Broker: broker,
		Logger: log,
	})

	// Optional Pub/Sub bridge for out-of-process chat backends
	if cfg.PubSubProjectID != "" {
		bridge, bridgeErr := signalbus.NewPubSubBridge(ctx, signalbus.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			Broker:           broker,
			Logger:           log,
		})
		if bridgeErr != nil {
			log.Fatal().Err(bridgeErr).Msg("failed to create pubsub bridge")
		}
		defer bridge.Close()

		go func() {
			if recvErr := bridge.Start(ctx); recvErr != nil {
				log.Error().Err(recvErr).Msg("pubsub bridge stopped")
			}
		}()
		log.Info().Str("subscription", cfg.PubSubSubscription).Msg("pubsub bridge started")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		ServiceName:   serviceName,
		JWTSigningKey: []byte(cfg.JWTSigningKey),
		Metrics:       httpMetrics,
		Schedulers: map[string]*poll.Scheduler{
			"itinerary": itinerarySched,
			"route":     routeSched,
		},
		Backend:    backendClient,
		Snapshots:  snapshots,
		Broker:     broker,
		Classifier: classifier,
	})

	server := &http.Server{
		Addr:         cfg.APIAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if srvErr := server.ListenAndServe(); srvErr != nil && srvErr != http.ErrServerClosed {
			log.Fatal().Err(srvErr).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server forced to shutdown")
	}

	log.Info().Msg("stopped")
}
