package recurrence

import (
	"fmt"
	"strconv"
	"time"
)

// Window is a finite inclusive expansion range.
type Window struct {
	From time.Time
	To   time.Time
}

// DayWindow is the single-day window containing date.
func DayWindow(date time.Time) Window {
	d := Normalize(date)
	return Window{From: d, To: d}
}

// WeekWindow is the ISO week (Monday through Sunday) containing date.
func WeekWindow(date time.Time) Window {
	d := Normalize(date)
	monday := AddDays(d, 1-WeekdayNumber(d))
	return Window{From: monday, To: AddDays(monday, 6)}
}

// MonthWindow parses "YYYY-MM" into the full calendar month window.
func MonthWindow(month string) (Window, error) {
	if len(month) != 7 || month[4] != '-' {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, month)
	}
	year, err1 := strconv.Atoi(month[0:4])
	m, err2 := strconv.Atoi(month[5:7])
	if err1 != nil || err2 != nil || m < 1 || m > 12 {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, month)
	}
	first := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, time.Month(m), daysInMonth(year, time.Month(m)), 0, 0, 0, 0, time.UTC)
	return Window{From: first, To: last}, nil
}
