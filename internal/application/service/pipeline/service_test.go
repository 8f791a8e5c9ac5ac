package pipeline

import (
	"context"
	"io"
	"testing"
	"time"

	"main/internal/application/service/classification"
	appproducts "main/internal/application/service/products"
	apptrading "main/internal/application/service/trading"
	domain "main/internal/domain/entity/trading"
	infraproducts "main/internal/infrastructure/products"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTradingRepo struct {
	reports    []domain.RawTradeReport
	ticks      []domain.MarketTick
	classified []domain.ClassifiedTrade
}

func (f *fakeTradingRepo) AddReport(_ context.Context, report *domain.RawTradeReport) error {
	f.reports = append(f.reports, *report)
	return nil
}

func (f *fakeTradingRepo) AddReports(_ context.Context, reports []domain.RawTradeReport) error {
	f.reports = append(f.reports, reports...)
	return nil
}

func (f *fakeTradingRepo) GetReportsBetween(_ context.Context, from, to time.Time) ([]domain.RawTradeReport, error) {
	var out []domain.RawTradeReport
	for _, r := range f.reports {
		if !r.ExecutionTime.Before(from) && !r.ExecutionTime.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeTradingRepo) AddTick(_ context.Context, tick *domain.MarketTick) error {
	f.ticks = append(f.ticks, *tick)
	return nil
}

func (f *fakeTradingRepo) AddTicks(_ context.Context, ticks []domain.MarketTick) error {
	f.ticks = append(f.ticks, ticks...)
	return nil
}

func (f *fakeTradingRepo) GetTicksBetween(_ context.Context, ticker string, from, to time.Time) ([]domain.MarketTick, error) {
	var out []domain.MarketTick
	for _, t := range f.ticks {
		if t.Ticker == ticker && !t.Timestamp.Before(from) && !t.Timestamp.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTradingRepo) AddClassifiedTrades(_ context.Context, trades []domain.ClassifiedTrade) error {
	f.classified = append(f.classified, trades...)
	return nil
}

func (f *fakeTradingRepo) GetClassifiedTradesBetween(_ context.Context, from, to time.Time) ([]domain.ClassifiedTrade, error) {
	return f.classified, nil
}

func (f *fakeTradingRepo) Close() {}

type fakeProductRepo struct {
	products map[string]domain.Product
}

func (f *fakeProductRepo) UpsertProduct(_ context.Context, product *domain.Product) error {
	if f.products == nil {
		f.products = make(map[string]domain.Product)
	}
	f.products[product.UPI] = *product
	return nil
}

func (f *fakeProductRepo) GetProduct(_ context.Context, upi string) (*domain.Product, error) {
	product, ok := f.products[upi]
	if !ok {
		return nil, infraproducts.ErrProductNotFound
	}
	return &product, nil
}

func (f *fakeProductRepo) ListProducts(_ context.Context) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) Close() {}

type fakeSource struct {
	reports []domain.RawTradeReport
	calls   int
}

func (f *fakeSource) FetchDay(_ context.Context, _ time.Time) ([]domain.RawTradeReport, error) {
	f.calls++
	return f.reports, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestPipeline(repo *fakeTradingRepo, products *fakeProductRepo, source *fakeSource) *Service {
	logger := quietLogger()
	engine := classification.NewService(classification.Config{}, nil, logger)
	return NewService(
		apptrading.NewService(repo),
		appproducts.NewService(products),
		source,
		engine,
		Defaults{Ticker: "CDX_IG", Convention: domain.ConventionSpread},
		logger,
	)
}

func dayTS(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func spreadReport(t *testing.T, executed string, spread string) domain.RawTradeReport {
	t.Helper()
	return domain.RawTradeReport{
		OriginalTransactionID: "orig-1",
		ReportID:              "rep-1",
		ExecutionTime:         dayTS(t, executed),
		Action:                domain.ActionNew,
		ProductName:           "CDX.NA.IG.S44",
		SpreadValue:           spread,
		SpreadNotation:        "4",
		Notional:              1000000,
		NotionalCurrency:      "USD",
	}
}

func dayTicks(t *testing.T) []domain.MarketTick {
	t.Helper()
	return []domain.MarketTick{
		{Ticker: "CDX_IG", Timestamp: dayTS(t, "2025-06-16T10:00:00Z"), Side: domain.TickSideBid, Value: 69},
		{Ticker: "CDX_IG", Timestamp: dayTS(t, "2025-06-16T10:00:00Z"), Side: domain.TickSideAsk, Value: 71},
	}
}

func TestRunDayUsesStoredReports(t *testing.T) {
	repo := &fakeTradingRepo{
		reports: []domain.RawTradeReport{spreadReport(t, "2025-06-16T10:00:05Z", "0.0075")},
		ticks:   dayTicks(t),
	}
	source := &fakeSource{}
	svc := newTestPipeline(repo, &fakeProductRepo{}, source)

	summary, err := svc.RunDay(context.Background(), RunRequest{Date: dayTS(t, "2025-06-16T00:00:00Z")})
	require.NoError(t, err)

	assert.Equal(t, 0, source.calls, "stored reports should suppress fetching")
	assert.False(t, summary.Fetched)
	assert.Equal(t, 1, summary.Classified)
	require.Len(t, repo.classified, 1)
	assert.Equal(t, domain.LabelBuy, repo.classified[0].Label)
	assert.Equal(t, 1, summary.Labels[domain.LabelBuy])
}

func TestRunDayFetchesWhenStoreEmpty(t *testing.T) {
	repo := &fakeTradingRepo{ticks: dayTicks(t)}
	source := &fakeSource{
		reports: []domain.RawTradeReport{spreadReport(t, "2025-06-16T10:00:05Z", "0.0065")},
	}
	svc := newTestPipeline(repo, &fakeProductRepo{}, source)

	summary, err := svc.RunDay(context.Background(), RunRequest{Date: dayTS(t, "2025-06-16T00:00:00Z")})
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.True(t, summary.Fetched)
	assert.Len(t, repo.reports, 1, "fetched reports should be persisted")
	require.Len(t, repo.classified, 1)
	assert.Equal(t, domain.LabelSell, repo.classified[0].Label)
}

func TestRunDayConventionPrecedence(t *testing.T) {
	products := &fakeProductRepo{products: map[string]domain.Product{
		"QZ0PH5HG4P9T": {UPI: "QZ0PH5HG4P9T", Ticker: "CDX_IG", Convention: domain.ConventionPrice},
	}}
	repo := &fakeTradingRepo{
		reports: []domain.RawTradeReport{spreadReport(t, "2025-06-16T10:00:05Z", "0.0075")},
		ticks:   dayTicks(t),
	}
	svc := newTestPipeline(repo, products, &fakeSource{})

	// Product registry entry wins over the configured default.
	summary, err := svc.RunDay(context.Background(), RunRequest{
		Date: dayTS(t, "2025-06-16T00:00:00Z"),
		UPI:  "QZ0PH5HG4P9T",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ConventionPrice, summary.Convention)

	// An explicit request value wins over the registry.
	summary, err = svc.RunDay(context.Background(), RunRequest{
		Date:       dayTS(t, "2025-06-16T00:00:00Z"),
		UPI:        "QZ0PH5HG4P9T",
		Convention: domain.ConventionSpread,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ConventionSpread, summary.Convention)
}

func TestRunDayUnknownProduct(t *testing.T) {
	repo := &fakeTradingRepo{ticks: dayTicks(t)}
	svc := newTestPipeline(repo, &fakeProductRepo{}, &fakeSource{})

	_, err := svc.RunDay(context.Background(), RunRequest{
		Date: dayTS(t, "2025-06-16T00:00:00Z"),
		UPI:  "UNKNOWN",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, infraproducts.ErrProductNotFound)
}

func TestRunDayValidation(t *testing.T) {
	repo := &fakeTradingRepo{}
	svc := newTestPipeline(repo, &fakeProductRepo{}, &fakeSource{})

	_, err := svc.RunDay(context.Background(), RunRequest{})
	assert.ErrorIs(t, err, ErrMissingDate)

	svc.defaults.Ticker = ""
	_, err = svc.RunDay(context.Background(), RunRequest{Date: dayTS(t, "2025-06-16T00:00:00Z")})
	assert.ErrorIs(t, err, ErrMissingTicker)
}

func TestRunDayInvalidDefaultConvention(t *testing.T) {
	repo := &fakeTradingRepo{
		reports: []domain.RawTradeReport{spreadReport(t, "2025-06-16T10:00:05Z", "0.0075")},
	}
	svc := newTestPipeline(repo, &fakeProductRepo{}, &fakeSource{})
	svc.defaults.Convention = "bogus"

	_, err := svc.RunDay(context.Background(), RunRequest{Date: dayTS(t, "2025-06-16T00:00:00Z")})
	assert.ErrorIs(t, err, classification.ErrInvalidConvention)
}
