package trading

import "time"

// Product is the reference-data record for one tradable index: the mapping
// from the regulator's Unique Product Identifier to the market-data ticker
// and the convention its quotes are expressed in.
type Product struct {
	UPI        string          `json:"upi"`
	Ticker     string          `json:"ticker"`
	Name       string          `json:"name"`
	Convention QuoteConvention `json:"convention"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
