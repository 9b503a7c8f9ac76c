package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/booking"
	"github.com/centrobenavente/booking-server/internal/config"
	"github.com/centrobenavente/booking-server/internal/db"
	"github.com/centrobenavente/booking-server/internal/notify"
	redisclient "github.com/centrobenavente/booking-server/internal/redis"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "reminder-worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("starting reminder worker")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	var notifier booking.Notifier
	if cfg.MailGatewayURL != "" {
		notifier = notify.NewMailer(cfg.MailGatewayURL, cfg.MailGatewayKey, cfg.MailFrom, logger)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	svc := booking.NewService(
		booking.NewPgRepository(pgPool),
		redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL),
		redisclient.NewCalendarCache(rdb, cfg.CalendarTTL),
		notifier,
		logger,
		booking.Options{PublicBaseURL: cfg.PublicBaseURL},
	)

	// Run once at startup, then on the ticker.
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	start := time.Now()
	if err := svc.SendReminders(runCtx); err != nil {
		logger.Error().Err(err).Msg("reminder run error")
		return
	}
	logger.Info().Dur("duration", time.Since(start)).Msg("reminder run complete")
}
