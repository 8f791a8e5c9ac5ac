package trading

import "time"

// ReportAction is the lifecycle action code carried by a regulatory disclosure.
type ReportAction string

const (
	ActionNew     ReportAction = "NEW"
	ActionCorrect ReportAction = "CORRECT"
	ActionCancel  ReportAction = "CANCEL"
	ActionError   ReportAction = "ERROR"
)

// Terminal reports true when the action voids the whole amendment chain.
func (a ReportAction) Terminal() bool {
	return a == ActionCancel || a == ActionError
}

// RawTradeReport is one regulatory disclosure event as published by the
// repository. Reports sharing an OriginalTransactionID form an amendment
// chain; the quote fields stay raw strings until normalization because the
// source mixes empty, non-numeric and differently denominated values.
type RawTradeReport struct {
	OriginalTransactionID string       `json:"original_transaction_id"`
	ReportID              string       `json:"report_id"`
	ExecutionTime         time.Time    `json:"execution_time"`
	Action                ReportAction `json:"action"`
	ProductName           string       `json:"product_name"`
	UPI                   string       `json:"upi"`
	PriceValue            string       `json:"price_value,omitempty"`
	PriceNotation         string       `json:"price_notation,omitempty"`
	SpreadValue           string       `json:"spread_value,omitempty"`
	SpreadNotation        string       `json:"spread_notation,omitempty"`
	Notional              float64      `json:"notional"`
	NotionalCurrency      string       `json:"notional_currency"`
}

// QuoteBasis states which economic field a trade is quoted on.
type QuoteBasis string

const (
	BasisPrice  QuoteBasis = "PRICE"
	BasisSpread QuoteBasis = "SPREAD"
	BasisNone   QuoteBasis = "NONE"
)

// ResolvedTrade is the authoritative final state of one amendment chain:
// the chronologically last non-terminal report, plus the normalized quote.
// A chain whose terminal report is CANCEL or ERROR never yields one.
type ResolvedTrade struct {
	RawTradeReport

	QuoteBasis    QuoteBasis `json:"quote_basis"`
	QuoteValue    float64    `json:"quote_value"`
	QuoteNotation string     `json:"quote_notation,omitempty"`
}
