// Command monitor runs the reconciliation core headless against a live
// engine: it seeds the store from a snapshot, keeps it synchronized over the
// event link and poller, logs every notification, and serves metrics.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"clipstudio/internal/engine"
	"clipstudio/internal/infra"
	"clipstudio/internal/notify"
	"clipstudio/internal/reconcile"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	metrics := infra.NewMetrics()

	client, err := engine.NewClient(engine.Options{
		BaseURL:    cfg.EngineBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.EngineTimeout},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("monitor: engine client failed")
	}

	coord := reconcile.New(reconcile.Options{
		Dialer:           engine.NewDialer(cfg.EngineEventsURL),
		FetchActive:      client.ActiveJobs,
		Sink:             notify.NewLogSink(logger),
		Logger:           logger,
		Metrics:          metrics,
		PollInterval:     cfg.PollInterval,
		ReconnectDelay:   cfg.ReconnectDelay,
		RetentionHorizon: cfg.RetentionHorizon,
	})

	// Seed before the link comes up so the first poll tick is not the only
	// source of already-running jobs. A failed seed is not fatal; the dual
	// channels converge on the same state anyway.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), cfg.EngineTimeout)
	snapshot, err := client.FetchSnapshot(seedCtx)
	cancelSeed()
	if err != nil {
		logger.Warn().Err(err).Msg("monitor: snapshot seed failed, starting cold")
	} else {
		coord.Seed(snapshot.Jobs, snapshot.Projects)
		logger.Info().
			Int("jobs", len(snapshot.Jobs)).
			Int("projects", len(snapshot.Projects)).
			Msg("monitor: store seeded")
	}

	coord.Start()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","link":"` + string(coord.State()) + `"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Msgf("monitor: metrics listening on :%s", cfg.MetricsPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("monitor: metrics server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	coord.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("monitor: failed to shutdown metrics server")
	}
	logger.Info().Msg("monitor: stopped")
}
