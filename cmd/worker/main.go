package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eshop/internal/avatar"
	"eshop/internal/cache"
	"eshop/internal/config"
	"eshop/internal/database"
	"eshop/internal/log"
	"eshop/internal/mail"
	"eshop/internal/queue"
	"eshop/internal/repository"
	"eshop/internal/service"
	"eshop/internal/storage"
	"eshop/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Worker.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	mongoClient, err := database.NewMongoClient(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	sender, err := mail.NewSender(cfg.Mail)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init mail sender")
	}

	purger := service.NewPurger(
		repository.NewUserRepository(mongoClient.Database(cfg.Mongo.Database)),
		avatar.NewPipeline(objectStore, cfg.Avatar, logger),
		logger,
	)
	processor := tasks.NewProcessor(sender, purger, cfg.Cleanup.PendingRetention, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Worker.Group,
		cfg.Worker.Consumer,
		cfg.Worker.ClaimInterval,
		cfg.Worker.MaxRetries,
		logger,
		processor,
	)

	logger.Info().Str("stream", cfg.Redis.Stream).Str("group", cfg.Worker.Group).Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
	}
	logger.Info().Msg("worker exited cleanly")
}
