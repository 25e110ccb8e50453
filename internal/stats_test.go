package internal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t *testing.T, s string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02T15:04:05", s)
	require.NoError(t, err)
	return &parsed
}

func amount(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return &d
}

func TestAggregate_BasicSummary(t *testing.T) {
	records := []TransactionRecord{
		{
			ID:       "a",
			Created:  ts(t, "2024-01-01T00:00:00"),
			Modified: ts(t, "2024-01-01T00:01:40"),
			Status:   "1",
			Currency: "USD",
			Amount:   amount(t, "10.00"),
		},
		{
			ID:       "b",
			Created:  ts(t, "2024-01-01T00:00:00"),
			Modified: ts(t, "2024-01-01T00:00:00"),
			Status:   "4",
		},
	}

	summary := Aggregate(records)

	assert.Equal(t, 2, summary.RowCount)
	assert.Equal(t, []int64{100, 0}, summary.LatencySeconds)
	assert.Equal(t, "50.00", summary.MeanLatencySeconds)

	require.Len(t, summary.Statuses, 2)
	assert.Equal(t, StatusShare{Status: "1", Percent: "50.00"}, summary.Statuses[0])
	assert.Equal(t, StatusShare{Status: "4", Percent: "50.00"}, summary.Statuses[1])

	require.Contains(t, summary.Currencies, "USD")
	usd := summary.Currencies["USD"]
	assert.Equal(t, 1, usd.Count)
	require.Len(t, usd.Items, 1)
	assert.True(t, usd.Items[0].Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, "10.00", usd.Mean)
}

func TestAggregate_EmptyAndNilInput(t *testing.T) {
	for name, records := range map[string][]TransactionRecord{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			summary := Aggregate(records)

			assert.Equal(t, 0, summary.RowCount)
			assert.Empty(t, summary.LatencySeconds)
			assert.Empty(t, summary.MeanLatencySeconds)
			assert.Empty(t, summary.Statuses)
			assert.Empty(t, summary.Currencies)
		})
	}
}

func TestAggregate_NegativeDeltaIsValid(t *testing.T) {
	// Back-dated corrections make modified < created. That data stays in.
	records := []TransactionRecord{
		{ID: "a", Created: ts(t, "2024-01-01T00:01:00"), Modified: ts(t, "2024-01-01T00:00:00")},
		{ID: "b", Created: ts(t, "2024-01-01T00:00:00"), Modified: ts(t, "2024-01-01T00:02:00")},
	}

	summary := Aggregate(records)

	assert.Equal(t, []int64{-60, 120}, summary.LatencySeconds)
	assert.Equal(t, "30.00", summary.MeanLatencySeconds)
}

func TestAggregate_StatusDistribution(t *testing.T) {
	records := []TransactionRecord{
		{ID: "a", Status: "1"},
		{ID: "b", Status: "4"},
		{ID: "c", Status: "1"},
		{ID: "d"}, // no status, excluded from the distribution
		{ID: "e", Status: "windfall"}, // unknown codes stay opaque
	}

	summary := Aggregate(records)

	require.Len(t, summary.Statuses, 3)
	// Lexicographic order by status code.
	assert.Equal(t, "1", summary.Statuses[0].Status)
	assert.Equal(t, "50.00", summary.Statuses[0].Percent)
	assert.Equal(t, "4", summary.Statuses[1].Status)
	assert.Equal(t, "25.00", summary.Statuses[1].Percent)
	assert.Equal(t, "windfall", summary.Statuses[2].Status)
	assert.Equal(t, "25.00", summary.Statuses[2].Percent)

	total := decimal.Zero
	for _, share := range summary.Statuses {
		total = total.Add(decimal.RequireFromString(share.Percent))
	}
	hundred := decimal.RequireFromString("100.00")
	assert.True(t, total.Sub(hundred).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")),
		"percentages sum to %s, want 100.00 within 0.01", total)
}

func TestAggregate_CurrencyBuckets(t *testing.T) {
	records := []TransactionRecord{
		{ID: "a", Currency: "USD", Amount: amount(t, "10.00")},
		{ID: "b", Currency: "EUR", Amount: amount(t, "3.50")},
		{ID: "c", Currency: "USD", Amount: amount(t, "20.01")},
		{ID: "d", Currency: "BRL"}, // currency without amount drops out
	}

	summary := Aggregate(records)

	require.Len(t, summary.Currencies, 2)
	assert.NotContains(t, summary.Currencies, "BRL")

	usd := summary.Currencies["USD"]
	assert.Equal(t, 2, usd.Count)
	assert.Len(t, usd.Items, usd.Count)
	// Insertion order within the bucket.
	assert.True(t, usd.Items[0].Equal(decimal.RequireFromString("10.00")))
	assert.True(t, usd.Items[1].Equal(decimal.RequireFromString("20.01")))
	assert.Equal(t, "15.01", usd.Mean)

	eur := summary.Currencies["EUR"]
	assert.Equal(t, 1, eur.Count)
	assert.Equal(t, "3.50", eur.Mean)

	assert.Equal(t, 1, summary.Skipped.BadAmounts)
}

func TestAggregate_RoundHalfUp(t *testing.T) {
	records := []TransactionRecord{
		{ID: "a", Currency: "USD", Amount: amount(t, "10.005")},
	}

	summary := Aggregate(records)

	assert.Equal(t, "10.01", summary.Currencies["USD"].Mean)
}

func TestAggregate_Idempotent(t *testing.T) {
	records := []TransactionRecord{
		{
			ID:       "a",
			Created:  ts(t, "2024-01-01T10:00:00"),
			Modified: ts(t, "2024-01-01T10:00:07"),
			Status:   "2",
			Currency: "USD",
			Amount:   amount(t, "5.25"),
		},
		{ID: "b", Status: "5"},
	}

	first := Aggregate(records)
	second := Aggregate(records)

	assert.Equal(t, first, second)
}

func TestAggregate_PartialRowsStillCount(t *testing.T) {
	// A row with a broken timestamp keeps feeding the status distribution.
	records := []TransactionRecord{
		{ID: "a", Status: "1"},
		{ID: "b", Created: ts(t, "2024-01-01T00:00:00"), Modified: ts(t, "2024-01-01T00:00:30"), Status: "1"},
	}

	summary := Aggregate(records)

	assert.Equal(t, []int64{30}, summary.LatencySeconds)
	require.Len(t, summary.Statuses, 1)
	assert.Equal(t, "100.00", summary.Statuses[0].Percent)
	assert.Equal(t, 1, summary.Skipped.BadTimestamps)
}
