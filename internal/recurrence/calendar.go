package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateFormat is returned when a date string cannot be parsed.
// Callers must reject the request; never fall back to "today".
var ErrInvalidDateFormat = errors.New("invalid date format")

// ParseLocalDate parses "YYYY-MM-DD" or an ISO-8601 timestamp and keeps the
// date portion verbatim. The timestamp's zone offset is deliberately ignored:
// the calendar date the user typed is the calendar date we store, which avoids
// the off-by-one-day drift that comes from converting through an instant.
func ParseLocalDate(s string) (time.Time, error) {
	if idx := strings.IndexByte(s, 'T'); idx != -1 {
		s = s[:idx]
	}
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	year, err1 := strconv.Atoi(s[0:4])
	month, err2 := strconv.Atoi(s[5:7])
	day, err3 := strconv.Atoi(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	if month < 1 || month > 12 || day < 1 || day > daysInMonth(year, time.Month(month)) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// FormatDate renders d as "YYYY-MM-DD" from its own calendar fields.
func FormatDate(d time.Time) string {
	return d.Format("2006-01-02")
}

// Normalize strips any time-of-day component, returning midnight of the same
// calendar date. All date arithmetic in this package runs on normalized
// values so that day counts never straddle a partial day.
func Normalize(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// WeekdayNumber returns the ISO-8601 weekday of d: Monday=1 .. Sunday=7.
func WeekdayNumber(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// DaysBetween returns the signed day count b-a over normalized dates.
func DaysBetween(a, b time.Time) int {
	a = Normalize(a)
	b = Normalize(b)
	return int(b.Sub(a).Hours() / 24)
}

// MonthsBetween returns the signed calendar-month count b-a, ignoring the
// day-of-month of either side.
func MonthsBetween(a, b time.Time) int {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return (by-ay)*12 + int(bm-am)
}

// AddDays returns d shifted by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return Normalize(d).AddDate(0, 0, n)
}

// AddMonths returns d shifted by n calendar months, clamping to the last day
// of the target month when the source day does not exist there
// (Jan 31 + 1 month = Feb 28/29).
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := Normalize(d).Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	ty, tm, _ := first.Date()
	if max := daysInMonth(ty, tm); day > max {
		day = max
	}
	return time.Date(ty, tm, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
