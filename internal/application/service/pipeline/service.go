package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"main/internal/application/service/classification"
	appproducts "main/internal/application/service/products"
	apptrading "main/internal/application/service/trading"
	domain "main/internal/domain/entity/trading"
	"main/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

var (
	ErrMissingDate   = errors.New("run date is required")
	ErrMissingTicker = errors.New("reference ticker is required")
)

// RunRequest describes one classification run: which trade date to process,
// which reference series to compare against, and optionally an explicit
// quoting convention or product UPI overriding the configured defaults.
type RunRequest struct {
	Date       time.Time
	Ticker     string
	Convention domain.QuoteConvention
	UPI        string
}

// RunSummary reports what a run consumed and produced.
type RunSummary struct {
	Date       time.Time                `json:"date"`
	Ticker     string                   `json:"ticker"`
	Convention domain.QuoteConvention   `json:"convention"`
	Reports    int                      `json:"reports"`
	Fetched    bool                     `json:"fetched"`
	Ticks      int                      `json:"ticks"`
	Classified int                      `json:"classified"`
	Labels     map[domain.Label]int     `json:"labels"`
	Trades     []domain.ClassifiedTrade `json:"-"`
}

// Defaults fill request fields the caller leaves empty.
type Defaults struct {
	Ticker     string
	Convention domain.QuoteConvention
}

// Service orchestrates a full day run: it gathers raw reports (from storage,
// falling back to the regulatory source), gathers ticks, resolves the quoting
// convention, runs the classification engine and persists the results.
type Service struct {
	trading  *apptrading.Service
	products *appproducts.Service
	source   interfaces.ReportSource
	engine   *classification.Service
	defaults Defaults
	logger   *logrus.Entry
}

func NewService(
	tradingSvc *apptrading.Service,
	productsSvc *appproducts.Service,
	source interfaces.ReportSource,
	engine *classification.Service,
	defaults Defaults,
	logger *logrus.Logger,
) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		trading:  tradingSvc,
		products: productsSvc,
		source:   source,
		engine:   engine,
		defaults: defaults,
		logger:   logger.WithField("component", "pipeline"),
	}
}

// RunDay executes one classification run and persists its output.
func (s *Service) RunDay(ctx context.Context, req RunRequest) (*RunSummary, error) {
	if req.Date.IsZero() {
		return nil, ErrMissingDate
	}
	ticker := req.Ticker
	if ticker == "" {
		ticker = s.defaults.Ticker
	}
	if ticker == "" {
		return nil, ErrMissingTicker
	}

	day := req.Date.UTC().Truncate(24 * time.Hour)
	dayEnd := day.Add(24 * time.Hour)
	log := s.logger.WithFields(logrus.Fields{
		"date":   day.Format("2006-01-02"),
		"ticker": ticker,
	})

	reports, fetched, err := s.gatherReports(ctx, day, dayEnd)
	if err != nil {
		return nil, err
	}

	ticks, err := s.trading.GetTicksBetween(ctx, ticker, day, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load ticks: %w", err)
	}

	convention, err := s.resolveConvention(ctx, req)
	if err != nil {
		return nil, err
	}

	classified, err := s.engine.ClassifyDay(reports, ticks, convention)
	if err != nil {
		return nil, err
	}
	if err := s.trading.AddClassifiedTrades(ctx, classified); err != nil {
		return nil, fmt.Errorf("persist classified trades: %w", err)
	}

	summary := &RunSummary{
		Date:       day,
		Ticker:     ticker,
		Convention: convention,
		Reports:    len(reports),
		Fetched:    fetched,
		Ticks:      len(ticks),
		Classified: len(classified),
		Labels:     make(map[domain.Label]int),
		Trades:     classified,
	}
	for _, trade := range classified {
		summary.Labels[trade.Label]++
	}
	log.WithFields(logrus.Fields{
		"reports":    summary.Reports,
		"fetched":    summary.Fetched,
		"ticks":      summary.Ticks,
		"classified": summary.Classified,
	}).Info("day run finished")
	return summary, nil
}

// gatherReports prefers stored reports and falls back to fetching the day
// from the regulatory source, persisting what it fetched.
func (s *Service) gatherReports(ctx context.Context, day, dayEnd time.Time) ([]domain.RawTradeReport, bool, error) {
	reports, err := s.trading.GetReportsBetween(ctx, day, dayEnd)
	if err != nil {
		return nil, false, fmt.Errorf("load reports: %w", err)
	}
	if len(reports) > 0 || s.source == nil {
		return reports, false, nil
	}

	fetched, err := s.source.FetchDay(ctx, day)
	if err != nil {
		return nil, false, fmt.Errorf("fetch reports: %w", err)
	}
	if err := s.trading.AddReports(ctx, fetched); err != nil {
		return nil, false, fmt.Errorf("persist reports: %w", err)
	}
	return fetched, true, nil
}

// resolveConvention picks the quoting convention for a run: an explicit
// request value wins, then the product registry entry for the requested UPI,
// then the configured default.
func (s *Service) resolveConvention(ctx context.Context, req RunRequest) (domain.QuoteConvention, error) {
	if req.Convention != "" {
		return req.Convention, nil
	}
	if req.UPI != "" && s.products != nil {
		product, err := s.products.GetProduct(ctx, req.UPI)
		if err != nil {
			return "", fmt.Errorf("resolve convention for %s: %w", req.UPI, err)
		}
		return product.Convention, nil
	}
	return s.defaults.Convention, nil
}
