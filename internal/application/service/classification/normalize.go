package classification

import (
	"math"
	"strconv"
	"strings"

	trading "main/internal/domain/entity/trading"
)

// NormalizeQuote extracts the usable economic value from a report's raw quote
// fields. A parseable spread wins over a parseable price; a non-numeric field
// is logged and treated as absent rather than failing the trade. When neither
// field yields a value the result is (BasisNone, NaN, "") — a valid outcome
// the classifier maps to a bad-quote label.
func (s *Service) NormalizeQuote(report trading.RawTradeReport) (trading.QuoteBasis, float64, string) {
	if value, ok := s.parseQuoteField(report, "spread_value", report.SpreadValue); ok {
		return trading.BasisSpread, value, strings.ToUpper(strings.TrimSpace(report.SpreadNotation))
	}
	if value, ok := s.parseQuoteField(report, "price_value", report.PriceValue); ok {
		return trading.BasisPrice, value, strings.ToUpper(strings.TrimSpace(report.PriceNotation))
	}
	return trading.BasisNone, math.NaN(), ""
}

func (s *Service) parseQuoteField(report trading.RawTradeReport, field, raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.logger.WithField("report_id", report.ReportID).
			WithField(field, raw).
			Warn("quote field is not numeric, treating as absent")
		return 0, false
	}
	if math.IsNaN(value) {
		return 0, false
	}
	return value, true
}
