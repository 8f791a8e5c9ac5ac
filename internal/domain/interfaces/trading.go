package interfaces

import (
	"context"
	"time"

	trading "main/internal/domain/entity/trading"
)

// TradingRepository persists raw reports, market ticks and classification
// outputs, and serves the time-window reads the batch job and API need.
type TradingRepository interface {
	AddReport(ctx context.Context, report *trading.RawTradeReport) error
	AddReports(ctx context.Context, reports []trading.RawTradeReport) error
	GetReportsBetween(ctx context.Context, from, to time.Time) ([]trading.RawTradeReport, error)

	AddTick(ctx context.Context, tick *trading.MarketTick) error
	AddTicks(ctx context.Context, ticks []trading.MarketTick) error
	GetTicksBetween(ctx context.Context, ticker string, from, to time.Time) ([]trading.MarketTick, error)

	AddClassifiedTrades(ctx context.Context, trades []trading.ClassifiedTrade) error
	GetClassifiedTradesBetween(ctx context.Context, from, to time.Time) ([]trading.ClassifiedTrade, error)

	Close()
}

// ProductRepository stores the UPI to ticker and quoting-convention mapping.
type ProductRepository interface {
	UpsertProduct(ctx context.Context, product *trading.Product) error
	GetProduct(ctx context.Context, upi string) (*trading.Product, error)
	ListProducts(ctx context.Context) ([]trading.Product, error)
	Close()
}

// ReportSource fetches a full day of raw trade reports from the regulatory
// repository; retrieval details (transport, retries) live behind it.
type ReportSource interface {
	FetchDay(ctx context.Context, date time.Time) ([]trading.RawTradeReport, error)
}
