package internal

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusInfo carries the display metadata for a known transaction status
// code. The severity tag is presentation only and never feeds aggregation.
type StatusInfo struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
}

// Statuses is the fixed status code table from the billing backend. Codes
// outside this table still show up in logs and are kept as opaque strings.
var Statuses = map[string]StatusInfo{
	"0": {Label: "pending", Severity: "null"},
	"1": {Label: "completed", Severity: "success"},
	"2": {Label: "checked", Severity: "info"},
	"3": {Label: "received", Severity: "info"},
	"4": {Label: "failed", Severity: "important"},
	"5": {Label: "cancelled", Severity: "warning"},
}

// TransactionRecord is one parsed row of a day's transaction log. Optional
// fields use pointers or the empty string, never sentinel values: a nil
// timestamp means it failed to parse, an empty Currency means the row has no
// monetary data, and a nil Amount next to a non-empty Currency means the
// amount was missing or malformed.
type TransactionRecord struct {
	ID       string           `json:"id"`
	Created  *time.Time       `json:"created,omitempty"`
	Modified *time.Time       `json:"modified,omitempty"`
	Status   string           `json:"status,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
}

// HasLatency reports whether both timestamps parsed on this row.
func (r TransactionRecord) HasLatency() bool {
	return r.Created != nil && r.Modified != nil
}

// LatencySeconds is the signed modified-created delta. Back-dated
// corrections make this negative, which is still valid data.
func (r TransactionRecord) LatencySeconds() int64 {
	return int64(r.Modified.Sub(*r.Created) / time.Second)
}

// HasAmount reports whether the row carries a usable monetary value.
func (r TransactionRecord) HasAmount() bool {
	return r.Currency != "" && r.Amount != nil
}

// RowDiagnostics counts rows the parser could only partially use, plus lines
// it could not split at all.
type RowDiagnostics struct {
	BadTimestamps int `json:"badTimestamps"`
	BadAmounts    int `json:"badAmounts"`
	Unreadable    int `json:"unreadable"`
}

// StatusShare is one status code's slice of the distribution, with the
// percentage pre-formatted to two decimals.
type StatusShare struct {
	Status  string `json:"status"`
	Percent string `json:"percent"`
}

// CurrencyStats summarises the amounts seen for one currency. Items keep the
// order the rows appeared in, so reruns over the same log are reproducible.
type CurrencyStats struct {
	Count int               `json:"count"`
	Items []decimal.Decimal `json:"items"`
	Mean  string            `json:"mean"`
}

// StatSummary is the aggregator's output for one (environment, date) log.
// It is built once per request and never mutated afterwards.
type StatSummary struct {
	RowCount           int                      `json:"rowCount"`
	LatencySeconds     []int64                  `json:"latencySeconds"`
	MeanLatencySeconds string                   `json:"meanLatencySeconds,omitempty"`
	Statuses           []StatusShare            `json:"statuses"`
	Currencies         map[string]CurrencyStats `json:"currencies"`
	Skipped            RowDiagnostics           `json:"skipped"`
}

// BuildResult is one poll of every configured CI job.
type BuildResult struct {
	When    time.Time       `json:"when"`
	Results map[string]bool `json:"results"`
}

// JobStatus is one job's outcome, used for sorted display.
type JobStatus struct {
	Name    string `json:"name"`
	Passing bool   `json:"passing"`
}

// Tier is a pricing plan with its per-region price entries keyed by region
// code (the upstream API returns them as a flat list).
type Tier struct {
	Name   string              `json:"name"`
	Active bool                `json:"active"`
	Prices map[int]RegionPrice `json:"prices"`
}

// RegionPrice is one region's price entry inside a tier.
type RegionPrice struct {
	Region   int    `json:"region"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Method   int    `json:"method"`
}

// Regions maps numeric pricing zone codes to display names.
var Regions = map[int]string{
	1: "Worldwide", 2: "US", 4: "UK", 7: "Brazil", 8: "Spain", 9: "Colombia",
	10: "Venezuela", 11: "Poland", 12: "Mexico", 13: "Hungary", 14: "Germany",
}

// Methods maps payment method codes to display names.
var Methods = map[int]string{
	0: "operator",
	1: "card",
	2: "both",
}
