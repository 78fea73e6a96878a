// Command server runs the medicine reminder backend: a REST API over the
// plan store, the in-process notification scheduler, and the daily rollover
// worker.
//
// Boot order: env → config → logging → tracing → database → scheduler →
// services → background workers → HTTP server. Shutdown reverses it under a
// single signal-scoped context.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	_ "github.com/medremind/go-medicine-backend/docs"
	"github.com/medremind/go-medicine-backend/internal/config"
	httpapi "github.com/medremind/go-medicine-backend/internal/http"
	"github.com/medremind/go-medicine-backend/internal/notify"
	"github.com/medremind/go-medicine-backend/internal/observability"
	"github.com/medremind/go-medicine-backend/internal/repo"
	"github.com/medremind/go-medicine-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// @title        Medicine Reminder API
// @version      1.0
// @description  Medication plan storage, reminder scheduling and daily rollover.
// @BasePath     /api/v1
func main() {
	// Optional .env for local development; real deployments use the
	// process environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutCtx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	// Database
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin")
		}
	}

	// Notification delivery
	var sink notify.Notifier = notify.LogSink{Log: log.Logger}
	if cfg.Reminder.DesktopNotify {
		sink = notify.MultiSink{notify.LogSink{Log: log.Logger}, notify.DesktopSink{}}
	}
	sched := notify.NewScheduler(sink, cfg.Reminder.Location())
	defer sched.CancelAll()

	bus := notify.NewBus()

	// HTTP router + services
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	planSvc, rolloverSvc := httpapi.RegisterRoutes(engine, db, sched, bus, cfg)

	// Re-arm reminder chains for plans that were active before restart,
	// then settle any rollover the process slept through.
	if plans, err := repo.ListActivePlans(ctx, db); err != nil {
		log.Error().Err(err).Msg("list active plans")
	} else {
		planSvc.RearmActive(ctx, plans)
		log.Info().Int("plans", len(plans)).Msg("reminder chains re-armed")
	}
	if err := rolloverSvc.ProcessDailyUpdates(ctx); err != nil {
		log.Error().Err(err).Msg("startup rollover pass")
	}

	// Rollover worker: one goroutine consumes every trigger source.
	responses, unsubscribe := bus.Subscribe(16)
	defer unsubscribe()
	go rolloverSvc.Run(ctx, responses)

	// Periodic pass covers day boundaries while the process stays up.
	go func() {
		ticker := time.NewTicker(cfg.Reminder.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rolloverSvc.ProcessDailyUpdates(ctx); err != nil {
					log.Error().Err(err).Msg("periodic rollover pass")
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	log.Info().Msg("server stopped")
}
