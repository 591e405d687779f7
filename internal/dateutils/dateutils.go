// Package dateutils provides the date operations used by the statement
// import pipeline.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Date format constants used throughout the application
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutStatement = "02.01.2006"
	DateLayoutFull      = "02.01.2006 15:04:05"
)

// ParseStatementDate parses a statement date of the form
// "DD.MM.YYYY" or "DD.MM.YYYY HH:MM:SS". Only the date portion is used;
// anything after the first space is dropped. Parsing is strict: a date part
// that does not match the layout exactly is an error.
func ParseStatementDate(dateStr, layout string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	datePart := dateStr
	if idx := strings.IndexByte(dateStr, ' '); idx >= 0 {
		datePart = dateStr[:idx]
	}

	t, err := time.Parse(layout, datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date %q: %w", datePart, err)
	}
	return t, nil
}

// FormatStatementDate renders a date back in the statement's own layout.
func FormatStatementDate(date time.Time, layout string) string {
	if layout == "" {
		layout = DateLayoutStatement
	}
	return date.Format(layout)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD).
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}
