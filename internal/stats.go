package internal

import (
	"sort"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Aggregate computes the day's summary statistics from parsed records. It is
// pure and deterministic: the same records always produce the same summary,
// and a nil slice is treated as an empty day rather than an error.
//
// A row contributes to each section independently: a row without timestamps
// still counts toward the status distribution, and a row without a status
// still contributes latency. Every division below is guarded by a non-empty
// check, an empty group simply leaves its key out of the output.
func Aggregate(records []TransactionRecord) StatSummary {
	summary := StatSummary{
		RowCount:   len(records),
		Currencies: map[string]CurrencyStats{},
	}

	statusCounts := map[string]int{}
	totalStatuses := 0
	currencyOrder := []string{}
	currencyItems := map[string][]decimal.Decimal{}

	var latencySum int64
	for _, rec := range records {
		if rec.HasLatency() {
			delta := rec.LatencySeconds()
			summary.LatencySeconds = append(summary.LatencySeconds, delta)
			latencySum += delta
		}

		if rec.Status != "" {
			statusCounts[rec.Status]++
			totalStatuses++
		}

		if rec.HasAmount() {
			if _, seen := currencyItems[rec.Currency]; !seen {
				currencyOrder = append(currencyOrder, rec.Currency)
			}
			currencyItems[rec.Currency] = append(currencyItems[rec.Currency], *rec.Amount)
		}

		if rec.Created == nil || rec.Modified == nil {
			summary.Skipped.BadTimestamps++
		}
		if rec.Currency != "" && rec.Amount == nil {
			summary.Skipped.BadAmounts++
		}
	}

	if n := len(summary.LatencySeconds); n > 0 {
		mean := decimal.NewFromInt(latencySum).Div(decimal.NewFromInt(int64(n)))
		summary.MeanLatencySeconds = mean.StringFixed(2)
	}

	if totalStatuses > 0 {
		codes := make([]string, 0, len(statusCounts))
		for code := range statusCounts {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		total := decimal.NewFromInt(int64(totalStatuses))
		for _, code := range codes {
			pct := decimal.NewFromInt(int64(statusCounts[code])).Mul(oneHundred).Div(total)
			summary.Statuses = append(summary.Statuses, StatusShare{
				Status:  code,
				Percent: pct.StringFixed(2),
			})
		}
	}

	for _, currency := range currencyOrder {
		items := currencyItems[currency]
		if len(items) == 0 {
			continue
		}

		sum := decimal.Zero
		for _, amount := range items {
			sum = sum.Add(amount)
		}
		mean := sum.Div(decimal.NewFromInt(int64(len(items))))

		summary.Currencies[currency] = CurrencyStats{
			Count: len(items),
			Items: items,
			Mean:  mean.StringFixed(2),
		}
	}

	return summary
}
