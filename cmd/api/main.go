package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"

	"kumpul/internal/config"
	"kumpul/internal/handler"
	applog "kumpul/internal/logger"
	"kumpul/internal/metrics"
	"kumpul/internal/middleware"
	"kumpul/internal/realtime"
	"kumpul/internal/repository"
	"kumpul/internal/service"
)

const (
	shutdownTimeout   = 10 * time.Second
	sessionPurgeEvery = time.Hour
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := applog.New(cfg.LogLevel)
	slog.SetDefault(log)

	if envErr != nil {
		log.Info("No .env file found, using environment variables")
	}

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.NewPostgresDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("Redis unavailable, caching and the distributed batching lock are disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var minioClient *minio.Client
	if mc, err := config.NewMinIOClient(cfg, log); err != nil {
		log.Warn("MinIO unavailable, media upload will not work", slog.Any("error", err))
	} else {
		minioClient = mc
	}

	hub := realtime.NewHub(log.With(slog.String("component", "realtime")))

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, hub, redisClient, minioClient, cfg, log)
	handlers := handler.NewHandlers(services)

	gateway := realtime.NewGateway(hub, func(token string) (uuid.UUID, error) {
		claims, err := services.Auth.ValidateAccessToken(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	}, cfg.WSSendBuffer, log.With(slog.String("component", "gateway")))

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(log),
		BodyLimit:    25 << 20,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(middleware.Metrics())

	setupRoutes(app, handlers, services, gateway, hub)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", slog.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return services.Notification.Run(gctx)
	})

	g.Go(func() error {
		purgeSessions(gctx, services, log)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error("HTTP shutdown failed", slog.Any("error", err))
		}
		services.Notification.Wait()
		hub.Close()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func purgeSessions(ctx context.Context, services *service.Services, log *slog.Logger) {
	ticker := time.NewTicker(sessionPurgeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := services.Auth.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Warn("Failed to purge expired sessions", slog.Any("error", err))
				continue
			}
			if n > 0 {
				log.Info("Purged expired sessions", slog.Int64("count", n))
			}
		}
	}
}
