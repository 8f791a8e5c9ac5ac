package classification

import (
	"math"
	"time"

	trading "main/internal/domain/entity/trading"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Classify assigns exactly one label to a resolved trade by comparing its
// quote, converted into reference spread terms, against the as-of reference
// mid. The decision is a linear pipeline that short-circuits at the first
// applicable outcome; a panic anywhere in it is recovered into a
// comparison-error label so one bad trade can never abort a batch.
func (s *Service) Classify(trade trading.ResolvedTrade, state trading.MarketState, convention trading.QuoteConvention) (result trading.ClassifiedTrade) {
	result = trading.ClassifiedTrade{
		ID:                    uuid.New(),
		TradeDate:             trade.ExecutionTime.UTC().Truncate(24 * time.Hour),
		ExecutionTime:         trade.ExecutionTime,
		OriginalTransactionID: trade.OriginalTransactionID,
		ReportID:              trade.ReportID,
		ProductName:           trade.ProductName,
		UPI:                   trade.UPI,
		QuoteBasis:            trade.QuoteBasis,
		QuoteValue:            trade.QuoteValue,
		Notional:              trade.Notional,
		NotionalCurrency:      trade.NotionalCurrency,
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"report_id":   trade.ReportID,
				"original_id": trade.OriginalTransactionID,
				"panic":       r,
			}).Error("recovered panic during trade comparison")
			result.Label = trading.LabelComparisonError
		}
		s.logger.WithFields(logrus.Fields{
			"report_id":     trade.ReportID,
			"original_id":   trade.OriginalTransactionID,
			"basis":         trade.QuoteBasis,
			"quote_value":   trade.QuoteValue,
			"spread_bps":    result.TradeSpreadBps,
			"reference_mid": result.ReferenceMid,
			"label":         result.Label,
		}).Debug("trade classified")
	}()

	result.Label = s.classify(&result, trade, state, convention)
	return result
}

func (s *Service) classify(result *trading.ClassifiedTrade, trade trading.ResolvedTrade, state trading.MarketState, convention trading.QuoteConvention) trading.Label {
	if trade.QuoteBasis == trading.BasisNone || math.IsNaN(trade.QuoteValue) {
		return trading.LabelBadQuote
	}
	if state.Empty() {
		return trading.LabelNoMid
	}

	point, ok := state.AsOf(trade.ExecutionTime)
	if !ok || math.IsNaN(point.Mid) {
		return trading.LabelStaleMid
	}
	age := trade.ExecutionTime.Sub(point.Timestamp)
	if age < 0 {
		age = -age
	}
	// the tolerance boundary itself is accepted.
	if age > s.cfg.LatencyTolerance {
		return trading.LabelStaleMid
	}

	tradeSpread, label := s.toReferenceSpread(trade, convention)
	if label != "" {
		return label
	}
	if tradeSpread < 0 {
		return trading.LabelNegativeSpread
	}

	result.TradeSpreadBps = tradeSpread
	result.ReferenceMid = point.Mid
	result.ReferenceAge = age

	switch {
	case tradeSpread > point.Mid:
		return trading.LabelBuy
	case tradeSpread < point.Mid:
		return trading.LabelSell
	default:
		return trading.LabelMidMarket
	}
}

// toReferenceSpread converts the trade's normalized quote into the reference
// unit (spread, basis points). The conversion always runs toward the
// reference; the mid itself is never converted. The empty label return means
// the conversion succeeded.
func (s *Service) toReferenceSpread(trade trading.ResolvedTrade, convention trading.QuoteConvention) (float64, trading.Label) {
	switch trade.QuoteBasis {
	case trading.BasisSpread:
		return trade.QuoteValue * s.cfg.SpreadScale, ""
	case trading.BasisPrice:
		if convention == trading.ConventionSpread {
			s.logger.WithField("report_id", trade.ReportID).
				Debug("price-basis quote on a spread-quoted day")
		}
		if s.convert == nil {
			return 0, trading.LabelConversionFailed
		}
		converted := s.convert(trade.QuoteValue)
		if math.IsNaN(converted) || math.IsInf(converted, 0) {
			return 0, trading.LabelConversionFailed
		}
		return converted, ""
	default:
		return 0, trading.LabelBadQuote
	}
}
