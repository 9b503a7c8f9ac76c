package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/api"
	"github.com/centrobenavente/booking-server/internal/booking"
	"github.com/centrobenavente/booking-server/internal/catalog"
	"github.com/centrobenavente/booking-server/internal/config"
	"github.com/centrobenavente/booking-server/internal/content"
	"github.com/centrobenavente/booking-server/internal/db"
	"github.com/centrobenavente/booking-server/internal/notify"
	redisclient "github.com/centrobenavente/booking-server/internal/redis"
)

var version = "dev"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.Migrate(migrateCtx, pgPool)
	cancelMigrate()
	if err != nil {
		logger.Fatal().Err(err).Msg("migration error")
	}
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

	bookingSvc := booking.NewService(
		booking.NewPgRepository(pgPool),
		redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL),
		redisclient.NewCalendarCache(rdb, cfg.CalendarTTL),
		notifier,
		logger,
		booking.Options{
			Fallback:       fallbackSchedule(cfg),
			CancelLeadTime: cfg.CancelLeadTime,
			PublicBaseURL:  cfg.PublicBaseURL,
		},
	)
	catalogMgr := catalog.NewManager(catalog.NewPgRepository(pgPool), logger)
	contentMgr := content.NewManager(content.NewPgRepository(pgPool), logger)

	router := api.NewRouter(api.RouterConfig{
		Booking:   bookingSvc,
		Catalog:   catalogMgr,
		Content:   contentMgr,
		PgPool:    pgPool,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		Env:       cfg.Env,
		Version:   version,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}

func fallbackSchedule(cfg config.Config) booking.FallbackSchedule {
	fs := booking.FallbackSchedule{
		SlotMinutes: cfg.DefaultSlotMins,
		MaxBookings: 1,
	}
	fs.Hours[time.Sunday] = cfg.SundayHours
	fs.Hours[time.Saturday] = cfg.SaturdayHours
	for day := time.Monday; day <= time.Friday; day++ {
		fs.Hours[day] = cfg.WeekdayHours
	}
	return fs
}
