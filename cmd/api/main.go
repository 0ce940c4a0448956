package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-insights-api/internal/config"
	"github.com/noah-isme/classroom-insights-api/internal/database"
	"github.com/noah-isme/classroom-insights-api/internal/handler"
	"github.com/noah-isme/classroom-insights-api/internal/middleware"
	"github.com/noah-isme/classroom-insights-api/internal/repository"
	"github.com/noah-isme/classroom-insights-api/internal/router"
	"github.com/noah-isme/classroom-insights-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(rootCtx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, dashboard cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, activity events limited to redis")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	teacherRepo := repository.NewTeacherRepository(db)
	analyticsRepo := repository.NewTeacherAnalyticsRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)

	analyticsService := service.NewTeacherAnalyticsService(analyticsRepo, redisClient, service.TeacherAnalyticsOptions{
		CacheTTL:            cfg.DashboardCacheTTL,
		RecentActivityLimit: cfg.RecentActivityLimit,
		AttentionLimit:      cfg.AttentionLimit,
		Timeout:             cfg.AnalyticsTimeout,
	}, logger)
	invalidationService := service.NewDashboardInvalidationService(analyticsService, redisClient, natsConn, cfg.EventsChannel, logger)
	invalidationService.Start(rootCtx)
	seedService := service.NewSeedService(classroomRepo, invalidationService, cfg.SeedEnabled, cfg.SeedToken, logger)

	probes := map[string]handler.HealthProbe{
		"database": analyticsRepo.Ping,
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		TeacherAnalyticsHandler: handler.NewTeacherAnalyticsHandler(analyticsService, validate, logger),
		SeedHandler:             handler.NewSeedHandler(seedService, validate, logger),
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
		TeacherResolver:         middleware.ResolveTeacher(teacherRepo, logger),
		HealthProbes:            probes,
		Logger:                  logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(rootCtx, app, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
