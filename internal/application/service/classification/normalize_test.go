package classification

import (
	"math"
	"testing"

	trading "main/internal/domain/entity/trading"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuote(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	tests := []struct {
		name      string
		price     string
		spread    string
		wantBasis trading.QuoteBasis
		wantValue float64
		wantNaN   bool
	}{
		{name: "spread only", spread: "0.0070", wantBasis: trading.BasisSpread, wantValue: 0.0070},
		{name: "price only", price: "1.5", wantBasis: trading.BasisPrice, wantValue: 1.5},
		{name: "spread wins over price", price: "1.5", spread: "0.0070", wantBasis: trading.BasisSpread, wantValue: 0.0070},
		{name: "non-numeric spread falls through to price", price: "1.5", spread: "N/A", wantBasis: trading.BasisPrice, wantValue: 1.5},
		{name: "whitespace spread falls through", price: "1.5", spread: "   ", wantBasis: trading.BasisPrice, wantValue: 1.5},
		{name: "both unusable", price: "abc", spread: "-", wantBasis: trading.BasisNone, wantNaN: true},
		{name: "both empty", wantBasis: trading.BasisNone, wantNaN: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := report(t, "T1", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, tt.spread)
			raw.PriceValue = tt.price
			raw.PriceNotation = "POINTS_UPFRONT"

			basis, value, _ := svc.NormalizeQuote(raw)
			assert.Equal(t, tt.wantBasis, basis)
			if tt.wantNaN {
				assert.True(t, math.IsNaN(value))
			} else {
				assert.InDelta(t, tt.wantValue, value, 1e-12)
			}
		})
	}
}

func TestNormalizeQuoteNotationIsUppercased(t *testing.T) {
	svc := newTestService(t, Config{}, nil)

	raw := report(t, "T1", "D1", "2025-06-16T10:00:00Z", trading.ActionNew, "0.0070")
	raw.SpreadNotation = " decimal "

	basis, _, notation := svc.NormalizeQuote(raw)
	assert.Equal(t, trading.BasisSpread, basis)
	assert.Equal(t, "DECIMAL", notation)
}
