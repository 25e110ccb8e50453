package parser

import "time"

const (
	// DayFormat is the date layout used in log object names and route params.
	DayFormat = "2006-01-02"

	// LogTimeFormat is the timestamp layout used inside transaction logs.
	LogTimeFormat = "2006-01-02T15:04:05"
)

// ParseDay parses a date in the form used by log files and URLs.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// ParseLogTime parses a transaction log timestamp.
func ParseLogTime(s string) (time.Time, error) {
	return time.Parse(LogTimeFormat, s)
}

// FormatDay renders a time as a log file date.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}
