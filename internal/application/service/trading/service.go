package trading

import (
	"context"
	"errors"
	"time"

	trading "main/internal/domain/entity/trading"
	interfaces "main/internal/domain/interfaces"
)

var (
	ErrNilTick       = errors.New("tick is nil")
	ErrNilReport     = errors.New("report is nil")
	ErrMissingTicker = errors.New("ticker is required")
)

type Service struct {
	repo interfaces.TradingRepository
}

func NewService(repo interfaces.TradingRepository) *Service {
	return &Service{repo: repo}
}

// Raw trade reports

func (s *Service) AddReport(ctx context.Context, report *trading.RawTradeReport) error {
	if report == nil {
		return ErrNilReport
	}
	return s.repo.AddReport(ctx, report)
}

func (s *Service) AddReports(ctx context.Context, reports []trading.RawTradeReport) error {
	if len(reports) == 0 {
		return nil
	}
	return s.repo.AddReports(ctx, reports)
}

func (s *Service) GetReportsBetween(ctx context.Context, from, to time.Time) ([]trading.RawTradeReport, error) {
	if from.After(to) {
		from, to = to, from
	}
	return s.repo.GetReportsBetween(ctx, from, to)
}

// Market ticks

func (s *Service) AddTick(ctx context.Context, tick *trading.MarketTick) error {
	if tick == nil {
		return ErrNilTick
	}
	return s.repo.AddTick(ctx, tick)
}

func (s *Service) AddTicks(ctx context.Context, ticks []trading.MarketTick) error {
	if len(ticks) == 0 {
		return nil
	}
	return s.repo.AddTicks(ctx, ticks)
}

func (s *Service) GetTicksBetween(ctx context.Context, ticker string, from, to time.Time) ([]trading.MarketTick, error) {
	if ticker == "" {
		return nil, ErrMissingTicker
	}
	if from.After(to) {
		from, to = to, from
	}
	return s.repo.GetTicksBetween(ctx, ticker, from, to)
}

// Classified trades

func (s *Service) AddClassifiedTrades(ctx context.Context, trades []trading.ClassifiedTrade) error {
	if len(trades) == 0 {
		return nil
	}
	return s.repo.AddClassifiedTrades(ctx, trades)
}

func (s *Service) GetClassifiedTradesBetween(ctx context.Context, from, to time.Time) ([]trading.ClassifiedTrade, error) {
	if from.After(to) {
		from, to = to, from
	}
	return s.repo.GetClassifiedTradesBetween(ctx, from, to)
}

func (s *Service) Close() {
	s.repo.Close()
}
