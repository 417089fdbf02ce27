// Command scheduler serves the survey notification scheduling API and runs
// its background jobs.
//
// @title          Survey Scheduler API
// @version        1.0
// @description    Schedule reconciliation, due-time resolution and delivery ledger for survey notifications.
// @BasePath       /api/v1
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/survey-scheduler/internal/cache"
	"github.com/tbourn/survey-scheduler/internal/config"
	"github.com/tbourn/survey-scheduler/internal/events"
	httpapi "github.com/tbourn/survey-scheduler/internal/http"
	"github.com/tbourn/survey-scheduler/internal/jobs"
	"github.com/tbourn/survey-scheduler/internal/observability"
	"github.com/tbourn/survey-scheduler/internal/repo"
	"github.com/tbourn/survey-scheduler/internal/services"
	"github.com/tbourn/survey-scheduler/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	sysutil.SetupLogging(cfg.LogLevel, cfg.OTEL.ServiceName, ver, cfg.LogPretty)

	if err := run(cfg, ver); err != nil {
		log.Fatal().Err(err).Msg("scheduler stopped")
	}
}

func run(cfg config.Config, ver string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	db, err := repo.Open(repo.Options{
		Driver:  cfg.DB.Driver,
		Path:    cfg.DB.Path,
		DSN:     cfg.DB.URL,
		Tracing: cfg.OTEL.Enabled,
		Quiet:   cfg.LogLevel != "debug",
	})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("database ready")

	var deps httpapi.Deps
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisArchiveCache(cache.NewRedisClient(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Redis.TTL)
		defer rc.Close()
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable; snapshot cache will retry lazily")
		}
		cancel()
		deps.Cache = rc
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ArchiveTopic)
		if err != nil {
			return err
		}
		defer pub.Close()
		deps.Publisher = pub
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", pub.Topic()).Msg("archived events publishing enabled")
	} else {
		deps.Publisher = events.Nop{}
	}

	runner := jobs.NewRunner(time.UTC, jobs.DefaultTimeout)
	if err := runner.Register("receipt-sweep", cfg.ReceiptSweepSpec, jobs.ReceiptSweep(services.NewReceiptService(db))); err != nil {
		return err
	}
	if err := runner.Register("idempotency-purge", cfg.IdempotencyPurge, jobs.IdempotencyPurge(db)); err != nil {
		return err
	}
	runner.Start()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		runner.Stop(sctx)
	}()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, deps, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
