package trading

import (
	"sort"
	"time"
)

// MarketPoint is one two-sided observation of the reference market.
type MarketPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Mid       float64   `json:"mid"`
}

// MarketState is a time-ordered reference price series built by forward
// filling the last known bid and ask at every observed tick time. It is
// immutable after construction, so as-of lookups are safe from any number
// of goroutines.
type MarketState struct {
	points []MarketPoint
}

// NewMarketState wraps an already time-ordered point slice.
func NewMarketState(points []MarketPoint) MarketState {
	return MarketState{points: points}
}

// Empty reports whether the series has no two-sided observations.
func (m MarketState) Empty() bool {
	return len(m.points) == 0
}

// Len returns the number of points in the series.
func (m MarketState) Len() int {
	return len(m.points)
}

// Points returns the underlying ordered series.
func (m MarketState) Points() []MarketPoint {
	return m.points
}

// AsOf returns the latest point whose timestamp is at or before t. The
// second return is false when the series is empty or t precedes the first
// observation.
func (m MarketState) AsOf(t time.Time) (MarketPoint, bool) {
	idx := sort.Search(len(m.points), func(i int) bool {
		return m.points[i].Timestamp.After(t)
	})
	if idx == 0 {
		return MarketPoint{}, false
	}
	return m.points[idx-1], true
}
