package trading

import (
	"time"

	"github.com/google/uuid"
)

// TickSide tags a one-sided market observation.
type TickSide string

const (
	TickSideBid TickSide = "BID"
	TickSideAsk TickSide = "ASK"
	// TickSideTrade marks executed-trade prints; the reference series ignores them.
	TickSideTrade TickSide = "TRADE"
)

// MarketTick is a single one-sided quote observation. Ticks arrive unordered
// and are sorted before the reference series is built.
type MarketTick struct {
	ID        uuid.UUID `json:"id"`
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`
	Side      TickSide  `json:"side"`
	Value     float64   `json:"value"`
}
