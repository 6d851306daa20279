package parse

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1234", "1234"},
		{"1234.56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1 234,56", "1234.56"},
		{"1 234,56", "1234.56"}, // non-breaking space
		{"1 234,56", "1234.56"}, // narrow non-breaking space
		{"1'234.56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1,234,567", "1234567"},
		{"1.234.567", "1234567"},
		{"0,5", "0.5"},
		{"  42  ", "42"},
		{"-12,5", "-12.5"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Decimal(tc.in)
			require.NoError(t, err)
			want, err := decimal.NewFromString(tc.want)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "got %s, want %s", got, want)
		})
	}
}

func TestDecimalRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "12abc", "1,2,3.4.5x"} {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			_, err := Decimal(in)
			assert.ErrorIs(t, err, ErrBadNumber)
		})
	}
}

func TestDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"15.08.2026", time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local)},
		{"5.8.2026", time.Date(2026, 8, 5, 0, 0, 0, 0, time.Local)},
		{"15.08.26", time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local)},
		{" 01.01.2025 ", time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Date(tc.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %s, want %s", got, tc.want)
		})
	}
}

func TestDateWithoutYear(t *testing.T) {
	got, err := Date("15.08")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Year(), got.Year())
	assert.Equal(t, time.August, got.Month())
	assert.Equal(t, 15, got.Day())
}

func TestDateRejects(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2026-08-15", "32.01.2026", "15/08/2026"} {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			_, err := Date(in)
			assert.ErrorIs(t, err, ErrBadDate)
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1234.500", "1234.5"},
		{"1234.000", "1234"},
		{"0.001", "0.001"},
		{"42", "42"},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, FormatDecimal(d))
	}
}

func TestFormatDateRoundTrip(t *testing.T) {
	day := time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local)
	back, err := Date(FormatDate(day))
	require.NoError(t, err)
	assert.True(t, back.Equal(day))
}
