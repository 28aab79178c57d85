package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// asString renders a canonical-row cell for parsing. Upload cells are
// strings; JSON re-submissions may carry numbers or bools.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

var numberCleaner = strings.NewReplacer(
	"₹", "", "$", "", "€", "", "£", "",
	"%", "", ",", "", " ", "", "\t", "",
)

// ParseNumber converts a cell like "₹1,250.00" or "12.5%" to a float.
// It fails closed: any character left over after stripping currency
// symbols, percent signs, commas and whitespace that is not part of a
// plain signed decimal makes the whole cell not-a-number.
func ParseNumber(raw string) (float64, bool) {
	s := numberCleaner.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
		case (r == '+' || r == '-') && i == 0:
		default:
			return 0, false
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParsePercent parses a percentage cell. The bound check lives in
// validation, not here; this only settles the numeric form.
func ParsePercent(raw string) (float64, bool) {
	return ParseNumber(raw)
}

// serialDateEpoch is the spreadsheet day-zero, 1899-12-30. The two-day
// shift from 1900-01-01 bakes in the historical 1900 leap-year bug.
var serialDateEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Plausible serial-date range guard: 1950-04-15 .. 2073-10-16. Keeps
// stray small numbers (grace days, slab counts) from turning into dates.
const (
	serialDateMin = 18000
	serialDateMax = 63500
)

// ParseDate resolves the date shapes uploads actually contain, in
// order: strict ISO, slash dates (month-first then day-first, to
// tolerate locale ambiguity), spreadsheet serial numbers, and finally a
// lenient general parse. Returns nil when nothing fits; never errors.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return &t
	}

	for _, layout := range []string{"1/2/2006", "2/1/2006", "1-2-2006", "2-1-2006"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= serialDateMin && serial <= serialDateMax {
			t := serialDateEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t
		}
		return nil
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &t
	}

	return nil
}

var settlementBases = map[string]string{
	"t_plus":      "t_plus",
	"t plus":      "t_plus",
	"tplus":       "t_plus",
	"weekly":      "weekly",
	"bi_weekly":   "bi_weekly",
	"bi weekly":   "bi_weekly",
	"biweekly":    "bi_weekly",
	"fortnightly": "bi_weekly",
	"monthly":     "monthly",
}

// ParseSettlementBasis maps a cell to one of the closed settlement
// basis values.
func ParseSettlementBasis(raw string) (string, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
	key = strings.ReplaceAll(key, "-", " ")
	basis, ok := settlementBases[key]
	return basis, ok
}

var commissionTypes = map[string]string{
	"flat":       "flat",
	"fixed":      "flat",
	"percentage": "flat",
	"tiered":     "tiered",
	"slab":       "tiered",
	"slabs":      "tiered",
	"slab wise":  "tiered",
	"slabwise":   "tiered",
}

// ParseCommissionType maps a cell to "flat" or "tiered".
func ParseCommissionType(raw string) (string, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
	key = strings.ReplaceAll(key, "-", " ")
	typ, ok := commissionTypes[key]
	return typ, ok
}

var feeKinds = map[string]string{
	"percent":    "percent",
	"percentage": "percent",
	"pct":        "percent",
	"amount":     "amount",
	"fixed":      "amount",
	"flat":       "amount",
	"rs":         "amount",
	"inr":        "amount",
}

// ParseFeeKind maps a cell to "percent" or "amount".
func ParseFeeKind(raw string) (string, bool) {
	kind, ok := feeKinds[strings.ToLower(strings.TrimSpace(raw))]
	return kind, ok
}

var weekdays = map[string]string{
	"monday": "monday", "mon": "monday",
	"tuesday": "tuesday", "tue": "tuesday", "tues": "tuesday",
	"wednesday": "wednesday", "wed": "wednesday",
	"thursday": "thursday", "thu": "thursday", "thur": "thursday", "thurs": "thursday",
	"friday": "friday", "fri": "friday",
	"saturday": "saturday", "sat": "saturday",
	"sunday": "sunday", "sun": "sunday",
}

// ParseWeekday maps a weekday cell (full or abbreviated) to its full
// lower-case name.
func ParseWeekday(raw string) (string, bool) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(raw))]
	return day, ok
}

var whichWeeks = map[string]string{
	"first": "first", "1": "first", "1st": "first",
	"second": "second", "2": "second", "2nd": "second",
}

// ParseWhichWeek maps the bi-weekly first/second indicator.
func ParseWhichWeek(raw string) (string, bool) {
	w, ok := whichWeeks[strings.ToLower(strings.TrimSpace(raw))]
	return w, ok
}

// ParseMonthlyDay accepts a day-of-month (1..31) or the "end of month"
// literal in its common spellings.
func ParseMonthlyDay(raw string) (string, bool) {
	s := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
	switch s {
	case "end of month", "end_of_month", "eom", "month end", "month_end", "last day":
		return "end_of_month", true
	}
	if n, ok := ParseNumber(s); ok && n == float64(int(n)) && n >= 1 && n <= 31 {
		return strconv.Itoa(int(n)), true
	}
	return "", false
}
