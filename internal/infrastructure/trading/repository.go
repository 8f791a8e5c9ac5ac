package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "main/internal/domain/entity/trading"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// Raw trade reports

const insertReportQuery = `
	INSERT INTO trade_reports (
		report_id, original_transaction_id, execution_time, action,
		product_name, upi, price_value, price_notation,
		spread_value, spread_notation, notional, notional_currency
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (report_id) DO NOTHING`

func (r *Repository) AddReport(ctx context.Context, report *domain.RawTradeReport) error {
	if report == nil {
		return errors.New("nil report")
	}
	_, err := r.pool.Exec(ctx, insertReportQuery, reportArgs(report)...)
	return err
}

func (r *Repository) AddReports(ctx context.Context, reports []domain.RawTradeReport) error {
	if len(reports) == 0 {
		return nil
	}
	// reports can repeat across EOD and slice files, so batch inserts go
	// through the conflict-tolerant single-row path inside one batch.
	batch := &pgx.Batch{}
	for i := range reports {
		batch.Queue(insertReportQuery, reportArgs(&reports[i])...)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range reports {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func reportArgs(report *domain.RawTradeReport) []interface{} {
	return []interface{}{
		report.ReportID,
		report.OriginalTransactionID,
		report.ExecutionTime,
		report.Action,
		report.ProductName,
		report.UPI,
		report.PriceValue,
		report.PriceNotation,
		report.SpreadValue,
		report.SpreadNotation,
		report.Notional,
		report.NotionalCurrency,
	}
}

func (r *Repository) GetReportsBetween(ctx context.Context, from, to time.Time) ([]domain.RawTradeReport, error) {
	const query = `
		SELECT report_id, original_transaction_id, execution_time, action,
		       product_name, upi, price_value, price_notation,
		       spread_value, spread_notation, notional, notional_currency
		FROM trade_reports
		WHERE execution_time >= $1 AND execution_time <= $2
		ORDER BY execution_time ASC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.RawTradeReport
	for rows.Next() {
		report := domain.RawTradeReport{}
		err := rows.Scan(
			&report.ReportID,
			&report.OriginalTransactionID,
			&report.ExecutionTime,
			&report.Action,
			&report.ProductName,
			&report.UPI,
			&report.PriceValue,
			&report.PriceNotation,
			&report.SpreadValue,
			&report.SpreadNotation,
			&report.Notional,
			&report.NotionalCurrency,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// Market ticks

const insertTickQuery = `
	INSERT INTO market_ticks (tick_id, ticker, ts, side, value)
	VALUES ($1,$2,$3,$4,$5)`

func (r *Repository) AddTick(ctx context.Context, tick *domain.MarketTick) error {
	if tick == nil {
		return errors.New("nil tick")
	}
	if tick.ID == uuid.Nil {
		tick.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, insertTickQuery,
		tick.ID,
		tick.Ticker,
		tick.Timestamp,
		tick.Side,
		tick.Value,
	)
	return err
}

func (r *Repository) AddTicks(ctx context.Context, ticks []domain.MarketTick) error {
	if len(ticks) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(ticks))
	for i := range ticks {
		if ticks[i].ID == uuid.Nil {
			ticks[i].ID = uuid.New()
		}
		rows = append(rows, []interface{}{
			ticks[i].ID,
			ticks[i].Ticker,
			ticks[i].Timestamp,
			ticks[i].Side,
			ticks[i].Value,
		})
	}
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"market_ticks"},
		[]string{"tick_id", "ticker", "ts", "side", "value"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (r *Repository) GetTicksBetween(ctx context.Context, ticker string, from, to time.Time) ([]domain.MarketTick, error) {
	const query = `
		SELECT tick_id, ticker, ts, side, value
		FROM market_ticks
		WHERE ticker=$1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC`
	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []domain.MarketTick
	for rows.Next() {
		tick := domain.MarketTick{}
		err := rows.Scan(&tick.ID, &tick.Ticker, &tick.Timestamp, &tick.Side, &tick.Value)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}
	return ticks, rows.Err()
}

// Classified trades

func (r *Repository) AddClassifiedTrades(ctx context.Context, trades []domain.ClassifiedTrade) error {
	if len(trades) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(trades))
	for i := range trades {
		if trades[i].ID == uuid.Nil {
			trades[i].ID = uuid.New()
		}
		rows = append(rows, []interface{}{
			trades[i].ID,
			trades[i].TradeDate,
			trades[i].ExecutionTime,
			trades[i].OriginalTransactionID,
			trades[i].ReportID,
			trades[i].ProductName,
			trades[i].UPI,
			trades[i].QuoteBasis,
			trades[i].QuoteValue,
			trades[i].Notional,
			trades[i].NotionalCurrency,
			trades[i].Label,
			trades[i].TradeSpreadBps,
			trades[i].ReferenceMid,
			trades[i].ReferenceAge.Milliseconds(),
		})
	}
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"classified_trades"},
		[]string{
			"id",
			"trade_date",
			"execution_time",
			"original_transaction_id",
			"report_id",
			"product_name",
			"upi",
			"quote_basis",
			"quote_value",
			"notional",
			"notional_currency",
			"label",
			"trade_spread_bps",
			"reference_mid",
			"reference_age_ms",
		},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (r *Repository) GetClassifiedTradesBetween(ctx context.Context, from, to time.Time) ([]domain.ClassifiedTrade, error) {
	const query = `
		SELECT id, trade_date, execution_time, original_transaction_id, report_id,
		       product_name, upi, quote_basis, quote_value,
		       notional, notional_currency, label,
		       trade_spread_bps, reference_mid, reference_age_ms
		FROM classified_trades
		WHERE execution_time >= $1 AND execution_time <= $2
		ORDER BY execution_time ASC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.ClassifiedTrade
	for rows.Next() {
		var ageMs int64
		trade := domain.ClassifiedTrade{}
		err := rows.Scan(
			&trade.ID,
			&trade.TradeDate,
			&trade.ExecutionTime,
			&trade.OriginalTransactionID,
			&trade.ReportID,
			&trade.ProductName,
			&trade.UPI,
			&trade.QuoteBasis,
			&trade.QuoteValue,
			&trade.Notional,
			&trade.NotionalCurrency,
			&trade.Label,
			&trade.TradeSpreadBps,
			&trade.ReferenceMid,
			&ageMs,
		)
		if err != nil {
			return nil, err
		}
		trade.ReferenceAge = time.Duration(ageMs) * time.Millisecond
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}
