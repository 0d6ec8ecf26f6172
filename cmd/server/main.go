package main // Entry point package

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/slotwise/platform/internal/cache"
	"github.com/slotwise/platform/internal/config"
	"github.com/slotwise/platform/internal/database"
	"github.com/slotwise/platform/internal/handler"
	"github.com/slotwise/platform/internal/middleware"
	"github.com/slotwise/platform/internal/queue"
	"github.com/slotwise/platform/internal/repository"
	"github.com/slotwise/platform/internal/router"
	"github.com/slotwise/platform/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "slotwise").Logger()

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	// Redis backs the shared cache and the rate limiter. A nil client
	// degrades both gracefully: the cache always misses and the limiter
	// fails open.
	rdb := config.NewRedisClient()
	var backend cache.Backend
	if cacheCfg.Enabled {
		if rdb != nil {
			backend = cache.NewRedisBackend(rdb)
		} else {
			log.Warn().Msg("redis unavailable, using process-local cache")
			backend = cache.NewMemoryBackend()
		}
	}
	store := cache.NewStore(backend, cacheCfg.TTL, log)

	// Repositories.
	tenants := repository.NewTenantRepo(db)
	bookings := repository.NewBookingRepo(db)
	events := repository.NewPaymentEventRepo(db)

	// Services.
	registry := service.NewRegistry(tenants)
	publisher := queue.NewPublisher(log)
	reservations := service.NewReservationService(bookings, store, service.DefaultRetryPolicy, log)
	availability := service.NewAvailabilityService(bookings, store, log)
	ingest := service.NewIngestService(events, bookings, store, publisher, log)
	reconciler := service.NewReconciler(events, ingest, cacheCfg.ReconcileInterval, cacheCfg.ReconcileGrace, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background workers: the reconciliation sweep and the broker-side
	// payment event consumer.
	go reconciler.Run(ctx)
	go func() {
		consumer := queue.NewConsumer(tenants, ingest, log)
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("payment consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterTenantAPI(e,
		registry,
		handler.NewReservationHandler(reservations),
		handler.NewAvailabilityHandler(availability),
		handler.NewWebhookHandler(ingest),
		middleware.NewTokenBucket(rlCfg, rdb),
	)
	router.RegisterOps(e, handler.NewOpsHandler(ingest, reconciler), cfg.OpsJWTSecret)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()
	if err := e.Start(addr); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
