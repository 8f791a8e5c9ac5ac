package classification

import (
	"io"
	"testing"
	"time"

	trading "main/internal/domain/entity/trading"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, cfg Config, convert SpreadConverter) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(cfg, convert, logger)
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func report(t *testing.T, originalID, reportID, executedAt string, action trading.ReportAction, spread string) trading.RawTradeReport {
	t.Helper()
	return trading.RawTradeReport{
		OriginalTransactionID: originalID,
		ReportID:              reportID,
		ExecutionTime:         ts(t, executedAt),
		Action:                action,
		ProductName:           "CDX.NA.IG.S44.5Y",
		UPI:                   "QZ0PH5HG4P9T",
		SpreadValue:           spread,
		SpreadNotation:        "DECIMAL",
		Notional:              10_000_000,
		NotionalCurrency:      "USD",
	}
}

func tick(t *testing.T, at string, side trading.TickSide, value float64) trading.MarketTick {
	t.Helper()
	return trading.MarketTick{
		Ticker:    "CDXIG5",
		Timestamp: ts(t, at),
		Side:      side,
		Value:     value,
	}
}

func resolvedSpreadTrade(t *testing.T, executedAt string, spreadBps float64) trading.ResolvedTrade {
	t.Helper()
	raw := report(t, "T1", "D1", executedAt, trading.ActionNew, "")
	return trading.ResolvedTrade{
		RawTradeReport: raw,
		QuoteBasis:     trading.BasisSpread,
		// quotes arrive as decimals; the default scale turns them into bps.
		QuoteValue: spreadBps / defaultSpreadScale,
	}
}
