package classification

import (
	"math"
	"sort"

	trading "main/internal/domain/entity/trading"
)

// BuildMarketState synthesizes the reference mid series from raw one-sided
// ticks: sort by time, forward-fill the last known bid and ask onto the union
// of observed timestamps, and emit mid = (bid+ask)/2 once both sides are
// known. Leading one-sided timestamps are dropped; ticks that never cover
// both sides produce an empty state, which the classifier treats as "no
// reference available".
func (s *Service) BuildMarketState(ticks []trading.MarketTick) trading.MarketState {
	ordered := make([]trading.MarketTick, 0, len(ticks))
	for _, tick := range ticks {
		if tick.Side != trading.TickSideBid && tick.Side != trading.TickSideAsk {
			continue
		}
		if tick.Timestamp.IsZero() || math.IsNaN(tick.Value) {
			continue
		}
		ordered = append(ordered, tick)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	bid := math.NaN()
	ask := math.NaN()
	var points []trading.MarketPoint
	for _, tick := range ordered {
		switch tick.Side {
		case trading.TickSideBid:
			bid = tick.Value
		case trading.TickSideAsk:
			ask = tick.Value
		}
		if math.IsNaN(bid) || math.IsNaN(ask) {
			continue
		}
		point := trading.MarketPoint{
			Timestamp: tick.Timestamp,
			Bid:       bid,
			Ask:       ask,
			Mid:       (bid + ask) / 2,
		}
		// several ticks at one timestamp collapse into the last value.
		if n := len(points); n > 0 && points[n-1].Timestamp.Equal(tick.Timestamp) {
			points[n-1] = point
			continue
		}
		points = append(points, point)
	}

	state := trading.NewMarketState(points)
	if state.Empty() {
		s.logger.Warn("tick set never covered both bid and ask, reference series is empty")
	}
	return state
}
