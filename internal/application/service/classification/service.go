package classification

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	trading "main/internal/domain/entity/trading"

	"github.com/sirupsen/logrus"
)

var ErrInvalidConvention = errors.New(`quoting convention must be "price" or "spread"`)

const (
	defaultLatencyTolerance = 30 * time.Second
	defaultSpreadScale      = 10000
)

// SpreadConverter turns a price-basis quote into spread terms (basis points).
// A NaN return marks a failed conversion; the engine never calls one itself,
// the financial model behind it is supplied by the caller.
type SpreadConverter func(value float64) float64

// Config carries the per-run settings of the engine.
type Config struct {
	// LatencyTolerance bounds how stale a reference point may be before a
	// trade is rejected. The boundary is inclusive.
	LatencyTolerance time.Duration
	// SpreadScale converts decimally quoted spreads into basis points.
	SpreadScale float64
	// TargetUPI, when set, restricts input to reports with that exact
	// Unique Product Identifier and wins over ProductPattern.
	TargetUPI string
	// ProductPattern, when set, restricts input to reports whose product
	// name matches it.
	ProductPattern *regexp.Regexp
}

// Service is the trade lifecycle resolution and market-relative
// classification engine. It is stateless between runs; trades within a run
// are classified independently of one another.
type Service struct {
	cfg     Config
	convert SpreadConverter
	logger  *logrus.Entry
}

// NewService builds the engine. convert may be nil when no price-basis
// trades are expected; such trades then classify as conversion failures.
func NewService(cfg Config, convert SpreadConverter, logger *logrus.Logger) *Service {
	if cfg.LatencyTolerance <= 0 {
		cfg.LatencyTolerance = defaultLatencyTolerance
	}
	if cfg.SpreadScale <= 0 {
		cfg.SpreadScale = defaultSpreadScale
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		cfg:     cfg,
		convert: convert,
		logger:  logger.WithField("component", "classification"),
	}
}

// ClassifyDay runs the full pipeline over one day's reports and ticks:
// product filtering, amendment resolution, reference series synthesis and
// per-trade classification. It returns one row per surviving resolved trade.
// The only fatal condition is an invalid quoting-convention flag; individual
// bad trades surface as unclassifiable labels, never as errors.
func (s *Service) ClassifyDay(reports []trading.RawTradeReport, ticks []trading.MarketTick, convention trading.QuoteConvention) ([]trading.ClassifiedTrade, error) {
	if !convention.Valid() {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidConvention, convention)
	}

	filtered := s.FilterProducts(reports)
	resolved := s.Resolve(filtered)
	state := s.BuildMarketState(ticks)

	results := make([]trading.ClassifiedTrade, 0, len(resolved))
	counts := make(map[trading.Label]int)
	for _, trade := range resolved {
		result := s.Classify(trade, state, convention)
		counts[result.Label]++
		results = append(results, result)
	}

	fields := logrus.Fields{
		"reports":    len(reports),
		"filtered":   len(filtered),
		"resolved":   len(resolved),
		"ticks":      len(ticks),
		"mid_points": state.Len(),
	}
	for label, n := range counts {
		fields[string(label)] = n
	}
	s.logger.WithFields(fields).Info("classification run finished")

	return results, nil
}

// FilterProducts narrows raw reports to the configured product: exact UPI
// match when a target UPI is set, otherwise the product-name pattern,
// otherwise everything passes.
func (s *Service) FilterProducts(reports []trading.RawTradeReport) []trading.RawTradeReport {
	if s.cfg.TargetUPI == "" && s.cfg.ProductPattern == nil {
		return reports
	}
	filtered := make([]trading.RawTradeReport, 0, len(reports))
	for _, report := range reports {
		if s.cfg.TargetUPI != "" {
			if report.UPI == s.cfg.TargetUPI {
				filtered = append(filtered, report)
			}
			continue
		}
		if s.cfg.ProductPattern.MatchString(report.ProductName) {
			filtered = append(filtered, report)
		}
	}
	s.logger.WithFields(logrus.Fields{
		"in":  len(reports),
		"out": len(filtered),
	}).Debug("product filtering applied")
	return filtered
}
