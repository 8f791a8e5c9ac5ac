package classification

import (
	"testing"
	"time"

	trading "main/internal/domain/entity/trading"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLastWriterWins(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	reports := []trading.RawTradeReport{
		report(t, "T1", "D3", "2025-06-16T10:00:05Z", trading.ActionCorrect, "0.0072"),
		report(t, "T1", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0068"),
		report(t, "T1", "D2", "2025-06-16T10:00:02Z", trading.ActionCorrect, "0.0070"),
	}

	resolved := svc.Resolve(reports)
	require.Len(t, resolved, 1)
	assert.Equal(t, "D3", resolved[0].ReportID)
	assert.Equal(t, "0.0072", resolved[0].SpreadValue)
	assert.Equal(t, trading.BasisSpread, resolved[0].QuoteBasis)
	assert.InDelta(t, 0.0072, resolved[0].QuoteValue, 1e-12)
}

func TestResolveCancellationExcludesChain(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	// the §8 end-to-end scenario: NEW, CORRECT, then CANCEL.
	reports := []trading.RawTradeReport{
		report(t, "T1", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0068"),
		report(t, "T1", "D2", "2025-06-16T10:00:02Z", trading.ActionCorrect, "0.0070"),
		report(t, "T1", "D3", "2025-06-16T10:00:05Z", trading.ActionCancel, ""),
	}

	assert.Empty(t, svc.Resolve(reports))
}

func TestResolveSingleTerminalReportYieldsNothing(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	for _, action := range []trading.ReportAction{trading.ActionCancel, trading.ActionError} {
		reports := []trading.RawTradeReport{
			report(t, "T1", "D1", "2025-06-16T10:00:00Z", action, "0.0070"),
		}
		assert.Empty(t, svc.Resolve(reports), "action %s", action)
	}
}

func TestResolveCancelFollowedByCorrectSurvives(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	// only the chronologically last action decides; an earlier CANCEL is
	// superseded by a later CORRECT.
	reports := []trading.RawTradeReport{
		report(t, "T1", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0068"),
		report(t, "T1", "D2", "2025-06-16T10:00:02Z", trading.ActionCancel, ""),
		report(t, "T1", "D3", "2025-06-16T10:00:05Z", trading.ActionCorrect, "0.0071"),
	}

	resolved := svc.Resolve(reports)
	require.Len(t, resolved, 1)
	assert.Equal(t, "D3", resolved[0].ReportID)
}

func TestResolveBlankOriginalIDsStayDistinct(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	// fresh disclosures carry no original transaction id; each is its own
	// chain, never an amendment of another blank-id report.
	reports := []trading.RawTradeReport{
		report(t, "", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0068"),
		report(t, "", "D2", "2025-06-16T11:00:00Z", trading.ActionNew, "0.0070"),
	}

	resolved := svc.Resolve(reports)
	require.Len(t, resolved, 2)
	assert.Equal(t, "D1", resolved[0].ReportID)
	assert.Equal(t, "D2", resolved[1].ReportID)
}

func TestResolveAmendmentReferencesBlankOriginalByReportID(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	// a later CORRECT names the fresh disclosure's report id as its
	// original transaction id; the two form one chain.
	reports := []trading.RawTradeReport{
		report(t, "", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0068"),
		report(t, "D1", "D2", "2025-06-16T10:00:05Z", trading.ActionCorrect, "0.0070"),
	}

	resolved := svc.Resolve(reports)
	require.Len(t, resolved, 1)
	assert.Equal(t, "D2", resolved[0].ReportID)
	assert.Equal(t, "0.0070", resolved[0].SpreadValue)
}

func TestResolveTimestampTiesKeepArrivalOrder(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	reports := []trading.RawTradeReport{
		report(t, "T1", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0068"),
		report(t, "T1", "D2", "2025-06-16T10:00:00Z", trading.ActionCorrect, "0.0070"),
	}

	resolved := svc.Resolve(reports)
	require.Len(t, resolved, 1)
	assert.Equal(t, "D2", resolved[0].ReportID)
}

func TestResolveDropsUnparseableTimestamps(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	corrupt := report(t, "T1", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0070")
	corrupt.ExecutionTime = time.Time{}
	good := report(t, "T2", "D2", "2025-06-16T10:00:01Z", trading.ActionNew, "0.0071")

	resolved := svc.Resolve([]trading.RawTradeReport{corrupt, good})
	require.Len(t, resolved, 1)
	assert.Equal(t, "T2", resolved[0].OriginalTransactionID)
}

func TestResolveSuppressesDuplicateReports(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	// the same disclosure appearing in both the EOD file and a slice.
	duplicate := report(t, "T1", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0070")
	resolved := svc.Resolve([]trading.RawTradeReport{duplicate, duplicate, duplicate})
	require.Len(t, resolved, 1)
	assert.Equal(t, "D1", resolved[0].ReportID)
}

func TestResolveIsIdempotent(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	reports := []trading.RawTradeReport{
		report(t, "T1", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0068"),
		report(t, "T2", "D2", "2025-06-16T10:00:01Z", trading.ActionCorrect, "0.0070"),
		report(t, "T3", "D3", "2025-06-16T10:00:02Z", trading.ActionNew, "0.0072"),
	}

	first := svc.Resolve(reports)
	require.Len(t, first, 3)

	again := make([]trading.RawTradeReport, 0, len(first))
	for _, trade := range first {
		again = append(again, trade.RawTradeReport)
	}
	second := svc.Resolve(again)
	assert.Equal(t, first, second)
}

func TestResolveKeepsInsertionOrderAcrossChains(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	reports := []trading.RawTradeReport{
		report(t, "T9", "D1", "2025-06-16T12:00:00Z", trading.ActionNew, "0.0070"),
		report(t, "T1", "D2", "2025-06-16T09:00:00Z", trading.ActionNew, "0.0070"),
		report(t, "T5", "D3", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0070"),
	}

	resolved := svc.Resolve(reports)
	require.Len(t, resolved, 3)
	assert.Equal(t, "T9", resolved[0].OriginalTransactionID)
	assert.Equal(t, "T1", resolved[1].OriginalTransactionID)
	assert.Equal(t, "T5", resolved[2].OriginalTransactionID)
}
