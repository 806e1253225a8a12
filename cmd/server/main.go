package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/hongminglow/pawfam/internal/config"
	"github.com/hongminglow/pawfam/internal/logging"
	"github.com/hongminglow/pawfam/internal/notify"
	"github.com/hongminglow/pawfam/internal/ratelimit"
	"github.com/hongminglow/pawfam/internal/server"
	"github.com/hongminglow/pawfam/internal/storage"
	"github.com/hongminglow/pawfam/internal/storage/memory"
	"github.com/hongminglow/pawfam/internal/storage/mongo"
	"github.com/hongminglow/pawfam/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx := context.Background()
	userStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("init storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer userStore.Close()

	var limiterClient redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("parse REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		limiterClient = client
	}

	srv, err := server.New(cfg, server.Dependencies{
		Store:  userStore,
		Mailer: newMailer(cfg, logger),
		RequestLimiter: ratelimit.New(limiterClient, ratelimit.Config{
			Prefix: "otp:request", Max: cfg.ResetRequestLimit, Window: cfg.ResetWindow,
		}),
		VerifyLimiter: ratelimit.New(limiterClient, ratelimit.Config{
			Prefix: "otp:verify", Max: cfg.ResetVerifyLimit, Window: cfg.ResetWindow,
		}),
		Logger: logger,
	})
	if err != nil {
		logger.Error("init server", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("PawFam backend listening", "addr", cfg.HTTPAddress(), "storage", cfg.StorageDriver)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.UserStore, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return postgres.NewUserStore(ctx, cfg.DatabaseURL)
	case config.DriverMongo:
		return mongo.NewUserStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverMemory:
		return memory.NewUserStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func newMailer(cfg config.Config, logger *slog.Logger) notify.Mailer {
	if !cfg.SMTPEnabled() {
		logger.Warn("SMTP not configured; reset emails will only be logged")
		return notify.NewLogMailer(logger)
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUser,
		Password:  cfg.SMTPPassword,
		From:      cfg.MailFrom,
		OTPExpiry: cfg.OTPTTL,
	})
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
