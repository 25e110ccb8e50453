package internal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kumar303/metaplace/pkg/parser"

	"github.com/shopspring/decimal"
)

var (
	ErrBadTimestamp = errors.New("bad timestamp")
	ErrBadAmount    = errors.New("bad amount")
)

// Log columns, in header order.
const (
	ColID       = "id"
	ColCreated  = "created"
	ColModified = "modified"
	ColStatus   = "status"
	ColCurrency = "currency"
	ColAmount   = "amount"
)

// ParseRow converts one raw row into a TransactionRecord. Row failures are
// not fatal: the returned record is always usable, with the broken field
// left absent, and the error says what was dropped. A malformed timestamp
// must not stop the row's status or currency from being counted, so both are
// parsed regardless.
func ParseRow(raw map[string]string) (TransactionRecord, error) {
	rec := TransactionRecord{
		ID:     raw[ColID],
		Status: raw[ColStatus],
	}

	var errs []error
	rec.Created = parseTimestamp(raw[ColCreated], &errs)
	rec.Modified = parseTimestamp(raw[ColModified], &errs)

	if cur := raw[ColCurrency]; cur != "" {
		rec.Currency = cur
		if amt, err := decimal.NewFromString(raw[ColAmount]); err == nil && raw[ColAmount] != "" {
			rec.Amount = &amt
		} else {
			errs = append(errs, fmt.Errorf("%w: currency %q with amount %q", ErrBadAmount, cur, raw[ColAmount]))
		}
	}

	return rec, errors.Join(errs...)
}

func parseTimestamp(s string, errs *[]error) *time.Time {
	t, err := parser.ParseLogTime(s)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %q", ErrBadTimestamp, s))
		return nil
	}
	return &t
}

// ParsedLog is the usable content of one day's log file.
type ParsedLog struct {
	Records     []TransactionRecord
	Diagnostics RowDiagnostics
}

// ReadLog parses a whole CSV transaction log. The first line is the header
// and decides column positions. Per-row failures are swallowed and counted;
// only a broken header or reader is fatal.
func ReadLog(r io.Reader) (*ParsedLog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read log header: %w", err)
	}

	log := &ParsedLog{}
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Corrupted line, nothing per-field to salvage.
			log.Diagnostics.Unreadable++
			continue
		}

		raw := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				raw[col] = fields[i]
			}
		}

		// Row errors only mean absent fields; the record itself is kept
		// and the aggregator counts the partial rows.
		rec, _ := ParseRow(raw)
		log.Records = append(log.Records, rec)
	}

	return log, nil
}
