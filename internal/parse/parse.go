// Package parse converts free-form chat input into typed values.
// All functions are pure; validation against recorded data lives in
// the workflows.
package parse

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrBadNumber indicates the input is not a recognizable decimal number.
	ErrBadNumber = errors.New("parse: not a number")
	// ErrBadDate indicates the input does not match any supported date layout.
	ErrBadDate = errors.New("parse: not a date")
)

// thousandSeps are characters users paste between digit groups.
var thousandSeps = []string{" ", " ", " ", "'"}

// Decimal parses a locale-tolerant decimal number: thousands groups may be
// separated with spaces or apostrophes, and both comma and dot are accepted
// as the decimal mark. "1 234,56", "1'234.56" and "1,234.56" all parse to
// the same value.
func Decimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, ErrBadNumber
	}
	for _, sep := range thousandSeps {
		s = strings.ReplaceAll(s, sep, "")
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		// The rightmost mark is the decimal point, the other groups thousands.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case hasDot:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrBadNumber
	}
	return d, nil
}

var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"2.1.06",
}

var dayMonthLayouts = []string{
	"02.01",
	"2.1",
}

// Date parses a day.month.year date. A date without a year is resolved
// against the current year. The returned time is midnight local.
func Date(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrBadDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	for _, layout := range dayMonthLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			now := time.Now()
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
		}
	}
	return time.Time{}, ErrBadDate
}

// FormatDate renders a date the way the wizards prompt for it.
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatDecimal renders a decimal without trailing zeros for chat output.
func FormatDecimal(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
