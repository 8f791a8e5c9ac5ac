package classification

import (
	"sort"

	trading "main/internal/domain/entity/trading"

	"github.com/sirupsen/logrus"
)

type reportKey struct {
	originalID string
	reportID   string
	executedAt int64
}

// chainID picks the amendment-chain key for a report. Fresh disclosures
// arrive with a blank original transaction id; their own report id is the
// chain identity, and it is the id later amendments reference.
func chainID(report trading.RawTradeReport) string {
	if report.OriginalTransactionID == "" {
		return report.ReportID
	}
	return report.OriginalTransactionID
}

// Resolve collapses amendment chains into at most one authoritative trade per
// original transaction id. Reports without a parseable execution time are
// dropped as corrupt, exact duplicates across source files are suppressed,
// and a chain whose chronologically last report is CANCEL or ERROR yields
// nothing. Resolving already-resolved single-report chains is a no-op.
func (s *Service) Resolve(reports []trading.RawTradeReport) []trading.ResolvedTrade {
	var dropped, duplicates int

	seen := make(map[reportKey]struct{}, len(reports))
	groups := make(map[string][]trading.RawTradeReport)
	// chain order follows first appearance so output ordering is
	// insertion-stable.
	var order []string

	for _, report := range reports {
		if report.ExecutionTime.IsZero() {
			dropped++
			s.logger.WithFields(logrus.Fields{
				"report_id":   report.ReportID,
				"original_id": report.OriginalTransactionID,
			}).Warn("dropping report with unparseable execution time")
			continue
		}
		key := reportKey{
			originalID: report.OriginalTransactionID,
			reportID:   report.ReportID,
			executedAt: report.ExecutionTime.UnixNano(),
		}
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		chain := chainID(report)
		if _, ok := groups[chain]; !ok {
			order = append(order, chain)
		}
		groups[chain] = append(groups[chain], report)
	}

	var voided int
	resolved := make([]trading.ResolvedTrade, 0, len(order))
	for _, id := range order {
		chain := groups[id]
		// ties on execution time keep arrival order; the source provides
		// no finer sequencing field.
		sort.SliceStable(chain, func(i, j int) bool {
			return chain[i].ExecutionTime.Before(chain[j].ExecutionTime)
		})
		terminal := chain[len(chain)-1]
		if terminal.Action.Terminal() {
			voided++
			continue
		}
		basis, value, notation := s.NormalizeQuote(terminal)
		resolved = append(resolved, trading.ResolvedTrade{
			RawTradeReport: terminal,
			QuoteBasis:     basis,
			QuoteValue:     value,
			QuoteNotation:  notation,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"reports":    len(reports),
		"dropped":    dropped,
		"duplicates": duplicates,
		"voided":     voided,
		"resolved":   len(resolved),
	}).Debug("amendment resolution finished")

	return resolved
}
