package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"eshop/internal/audit"
	"eshop/internal/avatar"
	"eshop/internal/cache"
	"eshop/internal/config"
	"eshop/internal/database"
	"eshop/internal/handlers"
	"eshop/internal/jobs"
	"eshop/internal/log"
	"eshop/internal/mail"
	"eshop/internal/queue"
	"eshop/internal/repository"
	"eshop/internal/server"
	"eshop/internal/service"
	"eshop/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "")

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, dbPool, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate postgres")
	}

	mongoClient, err := database.NewMongoClient(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect mongo")
	}
	userRepo := repository.NewUserRepository(mongoClient.Database(cfg.Mongo.Database))
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure user indexes")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	sender, err := mail.NewSender(cfg.Mail)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init mail sender")
	}

	recorder := audit.NewRecorder(repository.NewActionRepository(dbPool), cfg.Audit.Buffer, cfg.Audit.Timeout, logger)
	recorder.Start()

	publisher := queue.NewPublisher(redisClient, cfg.Redis.Stream)
	outbox := mail.NewOutbox(publisher, sender, logger)
	avatars := avatar.NewPipeline(objectStore, cfg.Avatar, logger)
	auth := service.NewAuthService(cfg.Security)
	users := service.NewUserService(userRepo, avatars, auth, recorder, outbox, cfg.App, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, users, auth, map[string]handlers.HealthChecker{
		"postgres": dbPool,
		"mongo": handlers.HealthFunc(func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}),
		"redis": handlers.HealthFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
		"storage": objectStore,
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(publisher, cfg.Cleanup.Schedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, recorder, dbPool, mongoClient, redisClient)
}

func waitForShutdown(
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	recorder *audit.Recorder,
	db *pgxpool.Pool,
	mongoClient *mongo.Client,
	redisClient *redis.Client,
) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("audit drain incomplete")
	}

	db.Close()
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("mongo disconnect error")
	}
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
