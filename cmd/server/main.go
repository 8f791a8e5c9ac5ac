package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"main/internal/application/service/classification"
	apppipeline "main/internal/application/service/pipeline"
	"main/internal/application/service/pricing"
	appproducts "main/internal/application/service/products"
	apptrading "main/internal/application/service/trading"
	"main/internal/config"
	domain "main/internal/domain/entity/trading"
	"main/internal/infrastructure/broker"
	"main/internal/infrastructure/dtcc"
	infraproducts "main/internal/infrastructure/products"
	infratrading "main/internal/infrastructure/trading"
	infrahttp "main/internal/interfaces/http"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	tradingRepo, err := infratrading.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init trading repo: %v", err)
	}
	defer tradingRepo.Close()

	productRepo, err := infraproducts.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init product repo: %v", err)
	}
	defer productRepo.Close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	tradingService := apptrading.NewService(tradingRepo)
	productService := appproducts.NewService(productRepo)

	converter := pricing.PriceToSpread(pricing.Params{
		RecoveryRate:    cfg.Classifier.RecoveryRate,
		CouponBps:       cfg.Classifier.CouponBps,
		YearsToMaturity: 5,
	}, logger)

	engine := classification.NewService(classification.Config{
		LatencyTolerance: cfg.Classifier.LatencyTolerance,
		SpreadScale:      cfg.Classifier.SpreadScale,
		TargetUPI:        cfg.Classifier.TargetUPI,
		ProductPattern:   cfg.Classifier.ProductPattern,
	}, converter, logger)

	fetcher := dtcc.NewFetcher(dtcc.Config{
		SliceBaseURL:     cfg.DTCC.SliceBaseURL,
		EODBaseURL:       cfg.DTCC.EODBaseURL,
		AssetClass:       cfg.DTCC.AssetClass,
		MaxSliceAttempts: cfg.DTCC.MaxSliceAttempts,
		Referer:          cfg.DTCC.Referer,
	}, logger)

	pipelineService := apppipeline.NewService(tradingService, productService, fetcher, engine, apppipeline.Defaults{
		Ticker:     cfg.Classifier.Ticker,
		Convention: domain.QuoteConvention(cfg.Classifier.Convention),
	}, logger)

	if cfg.RabbitMQ.URL != "" {
		consumer, err := broker.NewConsumer(cfg.RabbitMQ, tradingRepo, logger)
		if err != nil {
			logger.Fatalf("failed to init rabbitmq consumer: %v", err)
		}
		if err := consumer.Start(ctx); err != nil {
			logger.Fatalf("failed to start rabbitmq consumer: %v", err)
		}
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer closeCancel()
			if err := consumer.Close(closeCtx); err != nil {
				logger.Errorf("rabbitmq consumer close error: %v", err)
			}
		}()
	}

	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	handler := infrahttp.NewHandler(tradingService, productService, pipelineService, redisClient, cacheTTL)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	logger.Info("server stopped")
}
