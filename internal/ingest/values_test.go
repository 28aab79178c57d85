package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	t.Run("happy: plain and decorated numbers", func(t *testing.T) {
		cases := map[string]float64{
			"42":        42,
			"12.5":      12.5,
			"-3":        -3,
			"+7.25":     7.25,
			"12.5%":     12.5,
			"₹1,250.00": 1250,
			"$ 99":      99,
			"1,00,000":  100000, // Indian digit grouping
		}
		for raw, want := range cases {
			got, ok := ParseNumber(raw)
			require.True(t, ok, "input %q", raw)
			assert.Equal(t, want, got, "input %q", raw)
		}
	})

	t.Run("bad: fails closed on residual characters", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "12 days", "10%%x", "1.2.3", "12-5", "N/A", "--5"} {
			_, ok := ParseNumber(raw)
			assert.False(t, ok, "input %q should not parse", raw)
		}
	})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	t.Run("iso", func(t *testing.T) {
		got := ParseDate("2025-01-01")
		require.NotNil(t, got)
		assert.Equal(t, date(2025, time.January, 1), *got)
	})

	t.Run("slash month first wins when ambiguous", func(t *testing.T) {
		got := ParseDate("3/4/2025")
		require.NotNil(t, got)
		assert.Equal(t, date(2025, time.March, 4), *got)
	})

	t.Run("slash falls back to day first", func(t *testing.T) {
		got := ParseDate("31/12/2025")
		require.NotNil(t, got)
		assert.Equal(t, date(2025, time.December, 31), *got)
	})

	t.Run("spreadsheet serial number", func(t *testing.T) {
		// 45658 is 2025-01-01 under the 1899-12-30 epoch convention.
		got := ParseDate("45658")
		require.NotNil(t, got)
		assert.Equal(t, date(2025, time.January, 1), *got)
	})

	t.Run("serial guard rejects implausible numbers", func(t *testing.T) {
		assert.Nil(t, ParseDate("7"))
		assert.Nil(t, ParseDate("99999999"))
	})

	t.Run("general fallback", func(t *testing.T) {
		got := ParseDate("Jan 2, 2025")
		require.NotNil(t, got)
		assert.Equal(t, date(2025, time.January, 2), *got)
	})

	t.Run("garbage returns nil, never errors", func(t *testing.T) {
		assert.Nil(t, ParseDate(""))
		assert.Nil(t, ParseDate("not a date"))
	})
}

func TestParseSettlementBasis(t *testing.T) {
	cases := map[string]string{
		"t_plus":      "t_plus",
		"T Plus":      "t_plus",
		"bi-weekly":   "bi_weekly",
		"Fortnightly": "bi_weekly",
		"WEEKLY":      "weekly",
		"monthly":     "monthly",
	}
	for raw, want := range cases {
		got, ok := ParseSettlementBasis(raw)
		require.True(t, ok, "input %q", raw)
		assert.Equal(t, want, got)
	}

	_, ok := ParseSettlementBasis("quarterly")
	assert.False(t, ok)
}

func TestParseCommissionType(t *testing.T) {
	for raw, want := range map[string]string{"Flat": "flat", "fixed": "flat", "Slab-wise": "tiered", "TIERED": "tiered"} {
		got, ok := ParseCommissionType(raw)
		require.True(t, ok, "input %q", raw)
		assert.Equal(t, want, got)
	}

	_, ok := ParseCommissionType("hybrid")
	assert.False(t, ok)
}

func TestParseMonthlyDay(t *testing.T) {
	got, ok := ParseMonthlyDay("15")
	require.True(t, ok)
	assert.Equal(t, "15", got)

	got, ok = ParseMonthlyDay("End of Month")
	require.True(t, ok)
	assert.Equal(t, "end_of_month", got)

	_, ok = ParseMonthlyDay("32")
	assert.False(t, ok)
	_, ok = ParseMonthlyDay("someday")
	assert.False(t, ok)
}

func TestParseWeekday(t *testing.T) {
	got, ok := ParseWeekday("Fri")
	require.True(t, ok)
	assert.Equal(t, "friday", got)

	_, ok = ParseWeekday("Funday")
	assert.False(t, ok)
}
