package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory/app/inventory"
	"inventory/infra/blobstore"
	grpcserver "inventory/infra/grpc"
	"inventory/infra/postgres"
	"inventory/infra/rabbitmq"
	"inventory/internal/router"
	"inventory/pkg/config"
	"inventory/pkg/events"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	appConfig := config.Read(os.Args[1:])

	logger := newLogger(appConfig)
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	zap.L().Info("app starting...",
		zap.String("service", appConfig.ServiceName),
		zap.String("dbDriver", appConfig.DBDriver),
		zap.String("blobBackend", appConfig.BlobBackend))

	ctx := context.Background()

	db, err := postgres.Connect(ctx, postgres.Options{
		Driver:       appConfig.DBDriver,
		Host:         appConfig.PostgresHost,
		Port:         appConfig.PostgresPort,
		User:         appConfig.PostgresUsername,
		Password:     appConfig.PostgresPassword,
		Database:     appConfig.PostgresDatabase,
		SSLMode:      appConfig.PostgresSSLMode,
		SQLitePath:   appConfig.SQLitePath,
		MaxOpenConns: appConfig.DBMaxOpenConns,
	})
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	repository := postgres.NewRepository(db)

	if appConfig.DBAutoMigrate {
		if err := repository.EnsureSchema(ctx); err != nil {
			zap.L().Fatal("Failed to prepare schema", zap.Error(err))
		}
	}

	blobs, closeBlobs, err := newBlobStore(appConfig)
	if err != nil {
		zap.L().Fatal("Failed to prepare blob store", zap.Error(err))
	}

	checks := router.HealthCheckers{repository}

	var publisher events.Publisher
	if appConfig.RabbitMQURL != "" {
		p, err := rabbitmq.NewPublisher(appConfig.RabbitMQURL, events.InventoryExchange, appConfig.ServiceName)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		publisher = p
		checks = append(checks, p)
	} else {
		zap.L().Info("RABBITMQ_URL not set, inventory events disabled")
	}

	service := inventory.NewService(repository, blobs, publisher, logger.Named("inventory"))

	app := router.New(router.Config{
		BodyLimit:    appConfig.MaxUploadBytes,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		StaticDir:    appConfig.StaticDir,
	}, service, checks, logger.Named("http"))

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	var healthServer *grpcserver.Server
	if appConfig.GRPCPort != "" {
		healthServer, err = grpcserver.NewServer(appConfig.GRPCPort, appConfig.ServiceName)
		if err != nil {
			zap.L().Fatal("Failed to create gRPC health server", zap.Error(err))
		}
		go healthServer.Watch(watchCtx, checks, 10*time.Second)
		go func() {
			if err := healthServer.Start(); err != nil {
				zap.L().Error("gRPC health server stopped", zap.Error(err))
			}
		}()
	}

	go logPoolStats(watchCtx, repository, time.Minute)

	address := fmt.Sprintf("%s:%s", appConfig.Host, appConfig.Port)
	go func() {
		if err := app.Listen(address); err != nil {
			zap.L().Error("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	zap.L().Info("Server started", zap.String("address", address))

	gracefulShutdown(app, appConfig.ShutdownTimeout)

	stopWatch()
	if healthServer != nil {
		healthServer.GracefulStop()
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			zap.L().Warn("Error closing publisher", zap.Error(err))
		}
	}
	if err := closeBlobs(); err != nil {
		zap.L().Warn("Error closing blob store", zap.Error(err))
	}
	if err := repository.Close(); err != nil {
		zap.L().Warn("Error closing database pool", zap.Error(err))
	}

	zap.L().Info("Server gracefully stopped")
}

func newLogger(appConfig *config.AppConfig) *zap.Logger {
	var cfg zap.Config
	if appConfig.Development() {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Errorf("fatal error building logger: %w", err))
	}
	return logger.With(zap.String("service", appConfig.ServiceName))
}

func newBlobStore(appConfig *config.AppConfig) (inventory.BlobStore, func() error, error) {
	if appConfig.BlobBackend == "s3" {
		store, err := blobstore.NewS3(blobstore.S3Config{
			Endpoint:  appConfig.AWSEndpoint,
			Bucket:    appConfig.AWSBucket,
			Region:    appConfig.AWSDefaultRegion,
			AccessKey: appConfig.AWSAccessKey,
			SecretKey: appConfig.AWSSecretKey,
			Prefix:    "photos",
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	store, err := blobstore.NewLocal(appConfig.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	zap.L().Info("Storing photos locally", zap.String("dir", store.Dir()))
	return store, func() error { return nil }, nil
}

func logPoolStats(ctx context.Context, repository *postgres.Repository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := repository.PoolStats()
			zap.L().Debug("Database pool",
				zap.Int("open", stats.OpenConnections),
				zap.Int("inUse", stats.InUse),
				zap.Int("idle", stats.Idle),
				zap.Int64("waitCount", stats.WaitCount),
				zap.Duration("waitDuration", stats.WaitDuration))
		}
	}
}

func gracefulShutdown(app *fiber.App, timeout time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	zap.L().Info("Shutting down server...")

	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if err := app.ShutdownWithTimeout(timeout); err != nil {
		zap.L().Error("Error during server shutdown", zap.Error(err))
	}
}
