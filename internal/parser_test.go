package internal

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRow_Complete(t *testing.T) {
	rec, err := ParseRow(map[string]string{
		"id":       "tx-1",
		"created":  "2024-01-01T00:00:00",
		"modified": "2024-01-01T00:01:40",
		"status":   "1",
		"currency": "USD",
		"amount":   "10.00",
	})

	require.NoError(t, err)
	assert.Equal(t, "tx-1", rec.ID)
	require.True(t, rec.HasLatency())
	assert.Equal(t, int64(100), rec.LatencySeconds())
	assert.Equal(t, "1", rec.Status)
	require.True(t, rec.HasAmount())
	assert.True(t, rec.Amount.Equal(decimal.RequireFromString("10.00")))
}

func TestParseRow_BadTimestampKeepsStatus(t *testing.T) {
	// The asymmetry that matters: a malformed timestamp drops the row from
	// latency stats but its status and currency still count.
	rec, err := ParseRow(map[string]string{
		"id":       "tx-2",
		"created":  "not-a-time",
		"modified": "2024-01-01T00:01:40",
		"status":   "4",
		"currency": "EUR",
		"amount":   "2.50",
	})

	require.ErrorIs(t, err, ErrBadTimestamp)
	assert.False(t, rec.HasLatency())
	assert.Nil(t, rec.Created)
	assert.NotNil(t, rec.Modified)
	assert.Equal(t, "4", rec.Status)
	assert.True(t, rec.HasAmount())
}

func TestParseRow_CurrencyWithoutAmount(t *testing.T) {
	rec, err := ParseRow(map[string]string{
		"id":       "tx-3",
		"created":  "2024-01-01T00:00:00",
		"modified": "2024-01-01T00:00:05",
		"currency": "USD",
		"amount":   "ten dollars",
	})

	require.ErrorIs(t, err, ErrBadAmount)
	assert.Equal(t, "USD", rec.Currency)
	assert.Nil(t, rec.Amount)
	assert.False(t, rec.HasAmount())
	// The latency part of the row is untouched.
	assert.True(t, rec.HasLatency())
}

func TestParseRow_OptionalFieldsAbsent(t *testing.T) {
	rec, err := ParseRow(map[string]string{
		"id":       "tx-4",
		"created":  "2024-01-01T00:00:00",
		"modified": "2024-01-01T00:00:00",
		"status":   "",
		"currency": "",
		"amount":   "",
	})

	// Empty currency means no monetary data, not a bad amount.
	require.NoError(t, err)
	assert.Empty(t, rec.Currency)
	assert.Nil(t, rec.Amount)
	assert.Empty(t, rec.Status)
}

const sampleLog = `id,created,modified,status,currency,amount
tx-1,2024-01-01T00:00:00,2024-01-01T00:01:40,1,USD,10.00
tx-2,2024-01-01T00:00:00,2024-01-01T00:00:00,4,,
tx-3,bogus,2024-01-01T00:05:00,5,EUR,1.00
tx-4,2024-01-01T00:00:00,2024-01-01T00:00:10,1,CAD,plenty
`

func TestReadLog(t *testing.T) {
	parsed, err := ReadLog(strings.NewReader(sampleLog))
	require.NoError(t, err)

	require.Len(t, parsed.Records, 4)
	assert.Equal(t, "tx-1", parsed.Records[0].ID)
	assert.False(t, parsed.Records[2].HasLatency())
	assert.Equal(t, "5", parsed.Records[2].Status)
	assert.False(t, parsed.Records[3].HasAmount())

	summary := Aggregate(parsed.Records)
	assert.Equal(t, 4, summary.RowCount)
	assert.Equal(t, []int64{100, 0, 10}, summary.LatencySeconds)
	assert.Equal(t, 1, summary.Skipped.BadTimestamps)
	assert.Equal(t, 1, summary.Skipped.BadAmounts)
}

func TestReadLog_EmptyBody(t *testing.T) {
	parsed, err := ReadLog(strings.NewReader("id,created,modified,status,currency,amount\n"))
	require.NoError(t, err)
	assert.Empty(t, parsed.Records)

	summary := Aggregate(parsed.Records)
	assert.Equal(t, 0, summary.RowCount)
	assert.Empty(t, summary.MeanLatencySeconds)
}

func TestReadLog_NoHeader(t *testing.T) {
	_, err := ReadLog(strings.NewReader(""))
	assert.Error(t, err)
}
