package trading

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Label is the market-relative classification attached to a resolved trade.
// Every resolved trade receives exactly one label: a definitive side or a
// specific unclassifiable reason, never a blank.
type Label string

const (
	LabelBuy       Label = "buy"
	LabelSell      Label = "sell"
	LabelMidMarket Label = "mid_market"

	LabelBadQuote         Label = "unclassifiable_bad_dtcc_quote"
	LabelNoMid            Label = "unclassifiable_no_mid"
	LabelStaleMid         Label = "unclassifiable_stale_mid"
	LabelConversionFailed Label = "unclassifiable_conversion_failed"
	LabelNegativeSpread   Label = "unclassifiable_negative_spread"
	LabelComparisonError  Label = "unclassifiable_comparison_error"
)

// Unclassifiable reports whether the label is a failure reason rather than
// a market side.
func (l Label) Unclassifiable() bool {
	return strings.HasPrefix(string(l), "unclassifiable_")
}

// QuoteConvention is the per-day flag describing how the target product was
// quoted; it is supplied by configuration, never inferred from the data.
type QuoteConvention string

const (
	ConventionPrice  QuoteConvention = "price"
	ConventionSpread QuoteConvention = "spread"
)

// Valid reports whether the convention is one of the two known values.
func (c QuoteConvention) Valid() bool {
	return c == ConventionPrice || c == ConventionSpread
}

// ClassifiedTrade is one row of the output table: the resolved trade's
// economics plus its label and the reference point used to judge it.
type ClassifiedTrade struct {
	ID                    uuid.UUID  `json:"id"`
	TradeDate             time.Time  `json:"trade_date"`
	ExecutionTime         time.Time  `json:"execution_time"`
	OriginalTransactionID string     `json:"original_transaction_id"`
	ReportID              string     `json:"report_id"`
	ProductName           string     `json:"product_name"`
	UPI                   string     `json:"upi"`
	QuoteBasis            QuoteBasis `json:"quote_basis"`
	QuoteValue            float64    `json:"quote_value"`
	Notional              float64    `json:"notional"`
	NotionalCurrency      string     `json:"notional_currency"`
	Label                 Label      `json:"label"`
	// TradeSpreadBps and ReferenceMid are zero for unclassifiable outcomes
	// reached before the comparison step.
	TradeSpreadBps float64       `json:"trade_spread_bps,omitempty"`
	ReferenceMid   float64       `json:"reference_mid,omitempty"`
	ReferenceAge   time.Duration `json:"reference_age,omitempty"`
}
