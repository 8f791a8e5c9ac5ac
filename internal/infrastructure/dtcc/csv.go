package dtcc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	trading "main/internal/domain/entity/trading"

	"github.com/gocarina/gocsv"
)

// sliceRow mirrors the column headers of the public CFTC slice and EOD
// cumulative CSV files. Everything stays a string here; typed parsing happens
// once, in toReport.
type sliceRow struct {
	DisseminationID         string `csv:"Dissemination Identifier"`
	OriginalDisseminationID string `csv:"Original Dissemination Identifier"`
	ActionType              string `csv:"Action Type"`
	EventType               string `csv:"Event Type"`
	ExecutionTimestamp      string `csv:"Execution Timestamp"`
	ProductName             string `csv:"Product Name"`
	UPI                     string `csv:"Unique Product Identifier"`
	Price                   string `csv:"Price"`
	PriceNotation           string `csv:"Price Notation"`
	Spread                  string `csv:"Spread-Leg 1"`
	SpreadNotation          string `csv:"Spread Notation-Leg 1"`
	NotionalAmount          string `csv:"Notional Amount-Leg 1"`
	NotionalCurrency        string `csv:"Notional Amount Currency-Leg 1"`
}

var executionTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseReports decodes one CSV file into raw trade reports. Rows with an
// unparseable execution timestamp keep a zero time and are dropped later by
// the resolver; an undecodable file is an error.
func ParseReports(data []byte) ([]trading.RawTradeReport, error) {
	var rows []*sliceRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("decode slice csv: %w", err)
	}
	reports := make([]trading.RawTradeReport, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, toReport(row))
	}
	return reports, nil
}

func toReport(row *sliceRow) trading.RawTradeReport {
	return trading.RawTradeReport{
		OriginalTransactionID: strings.TrimSpace(row.OriginalDisseminationID),
		ReportID:              strings.TrimSpace(row.DisseminationID),
		ExecutionTime:         parseExecutionTime(row.ExecutionTimestamp),
		Action:                trading.ReportAction(strings.ToUpper(strings.TrimSpace(row.ActionType))),
		ProductName:           strings.TrimSpace(row.ProductName),
		UPI:                   strings.TrimSpace(row.UPI),
		PriceValue:            strings.TrimSpace(row.Price),
		PriceNotation:         strings.TrimSpace(row.PriceNotation),
		SpreadValue:           strings.TrimSpace(row.Spread),
		SpreadNotation:        strings.TrimSpace(row.SpreadNotation),
		Notional:              parseNotional(row.NotionalAmount),
		NotionalCurrency:      strings.TrimSpace(row.NotionalCurrency),
	}
}

func parseExecutionTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range executionTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// parseNotional coerces the notional field, which the source publishes with
// thousands separators and capped values like "100000000+".
func parseNotional(raw string) float64 {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSuffix(raw, "+")
	if raw == "" {
		return math.NaN()
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}
