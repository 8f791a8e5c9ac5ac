package trading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestMarketStateAsOf(t *testing.T) {
	state := NewMarketState([]MarketPoint{
		{Timestamp: ts(t, "2025-06-16T10:00:00Z"), Bid: 69, Ask: 71, Mid: 70},
		{Timestamp: ts(t, "2025-06-16T10:00:30Z"), Bid: 69.5, Ask: 71.5, Mid: 70.5},
		{Timestamp: ts(t, "2025-06-16T10:05:00Z"), Bid: 70, Ask: 72, Mid: 71},
	})

	tests := []struct {
		name    string
		query   string
		wantMid float64
		wantOK  bool
	}{
		{"before first point", "2025-06-16T09:59:59Z", 0, false},
		{"exactly on first point", "2025-06-16T10:00:00Z", 70, true},
		{"between points", "2025-06-16T10:02:00Z", 70.5, true},
		{"exactly on later point", "2025-06-16T10:05:00Z", 71, true},
		{"after last point", "2025-06-16T18:00:00Z", 71, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point, ok := state.AsOf(ts(t, tt.query))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantMid, point.Mid)
			}
		})
	}
}

func TestMarketStateAsOfEmpty(t *testing.T) {
	state := NewMarketState(nil)
	assert.True(t, state.Empty())

	_, ok := state.AsOf(ts(t, "2025-06-16T10:00:00Z"))
	assert.False(t, ok)
}

func TestLabelUnclassifiable(t *testing.T) {
	assert.False(t, LabelBuy.Unclassifiable())
	assert.False(t, LabelSell.Unclassifiable())
	assert.False(t, LabelMidMarket.Unclassifiable())
	assert.True(t, LabelBadQuote.Unclassifiable())
	assert.True(t, LabelStaleMid.Unclassifiable())
	assert.True(t, LabelComparisonError.Unclassifiable())
}

func TestReportActionTerminal(t *testing.T) {
	assert.True(t, ActionCancel.Terminal())
	assert.True(t, ActionError.Terminal())
	assert.False(t, ActionNew.Terminal())
	assert.False(t, ActionCorrect.Terminal())
}

func TestQuoteConventionValid(t *testing.T) {
	assert.True(t, ConventionPrice.Valid())
	assert.True(t, ConventionSpread.Valid())
	assert.False(t, QuoteConvention("").Valid())
	assert.False(t, QuoteConvention("upfront").Valid())
}
