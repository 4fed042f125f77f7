package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/GOODBADBOY10/centron-bot/config"
	"github.com/GOODBADBOY10/centron-bot/internal/api"
	"github.com/GOODBADBOY10/centron-bot/internal/engine"
	"github.com/GOODBADBOY10/centron-bot/internal/marketdata"
	"github.com/GOODBADBOY10/centron-bot/internal/notify"
	"github.com/GOODBADBOY10/centron-bot/internal/scheduler"
	"github.com/GOODBADBOY10/centron-bot/internal/wallet"
	"github.com/GOODBADBOY10/centron-bot/pkg/aftermath"
	"github.com/GOODBADBOY10/centron-bot/pkg/sui"
	"github.com/GOODBADBOY10/centron-bot/storage/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Infof("no .env file found, continuing with environment as is")
	}

	cfg, err := config.GetConfigure()
	if err != nil {
		logrus.Fatalf("fail to read config, err: %v", err)
	}

	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.JSONFormatter{})

	db, err := postgres.NewPostgresBackend(cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("fail to connect to database, err: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Username: cfg.Redis.User,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	sdClient, err := statsd.New(cfg.Datadog.Host + ":" + cfg.Datadog.Port)
	if err != nil {
		logger.Fatalf("fail to create statsd client, err: %v", err)
	}
	defer sdClient.Close()

	chainClient := sui.NewClient(cfg.Sui.RpcURL)

	swapClient, err := aftermath.NewClient(aftermath.NewConfig(cfg.Aftermath.BaseURL, cfg.Aftermath.Timeout), chainClient)
	if err != nil {
		logger.Fatalf("fail to create swap client, err: %v", err)
	}

	resolver, err := wallet.NewResolver(db, cfg.EncryptionSecret)
	if err != nil {
		logger.Fatalf("fail to create wallet resolver, err: %v", err)
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, logger)
	if err != nil {
		logger.Fatalf("fail to create telegram notifier, err: %v", err)
	}

	exec := engine.NewEngine(db, resolver, swapClient, chainClient, sdClient, logger, engine.Config{
		FeePercent:      cfg.Engine.FeePercent,
		FeeRecipient:    cfg.Engine.FeeRecipient,
		SettlementDelay: cfg.Engine.SettlementDelay,
		MaxAttempts:     cfg.Engine.MaxAttempts,
	})

	market := marketdata.NewCachedSource(
		marketdata.NewHTTPSource(marketdata.Config{
			BaseURL: cfg.MarketData.BaseURL,
			APIKey:  cfg.MarketData.APIKey,
			Timeout: cfg.MarketData.Timeout,
		}, logger),
		rdb,
		cfg.MarketData.CacheTTL,
		logger,
	)

	limitScheduler := scheduler.NewLimitScheduler(db, market, exec, notifier, logger, cfg.Scheduler.LimitInterval)
	dcaScheduler := scheduler.NewDCAScheduler(db, exec, notifier, logger, cfg.Scheduler.DCAInterval)

	limitScheduler.Start()
	defer limitScheduler.Stop()
	dcaScheduler.Start()
	defer dcaScheduler.Stop()

	server := api.NewServer(db, market, logger, cfg.JWTSecret, cfg.Server.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("fail to start server, err: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("fail to shutdown server, err: %v", err)
	}
}
