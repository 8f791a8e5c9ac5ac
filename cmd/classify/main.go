package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"main/internal/application/service/classification"
	apppipeline "main/internal/application/service/pipeline"
	"main/internal/application/service/pricing"
	appproducts "main/internal/application/service/products"
	apptrading "main/internal/application/service/trading"
	"main/internal/config"
	domain "main/internal/domain/entity/trading"
	"main/internal/infrastructure/dtcc"
	infraproducts "main/internal/infrastructure/products"
	infratrading "main/internal/infrastructure/trading"

	"github.com/sirupsen/logrus"
)

// One-shot day run: gather the day's reports and ticks, classify, persist,
// print the label counts. The date comes from the first argument or RUN_DATE
// (YYYY-MM-DD), defaulting to the previous UTC day.

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	date, err := resolveDate()
	if err != nil {
		logger.Fatalf("invalid run date: %v", err)
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

	summary, err := pipelineService.RunDay(ctx, apppipeline.RunRequest{
		Date:   date,
		UPI:    strings.TrimSpace(os.Getenv("RUN_UPI")),
		Ticker: strings.TrimSpace(os.Getenv("RUN_TICKER")),
	})
	if err != nil {
		logger.Fatalf("day run failed: %v", err)
	}

	fields := logrus.Fields{
		"date":       summary.Date.Format("2006-01-02"),
		"ticker":     summary.Ticker,
		"convention": summary.Convention,
		"reports":    summary.Reports,
		"ticks":      summary.Ticks,
		"classified": summary.Classified,
	}
	for label, n := range summary.Labels {
		fields[string(label)] = n
	}
	logger.WithFields(fields).Info("run complete")
}

func resolveDate() (time.Time, error) {
	raw := ""
	if len(os.Args) > 1 {
		raw = strings.TrimSpace(os.Args[1])
	}
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("RUN_DATE"))
	}
	if raw == "" {
		return time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", raw)
}
