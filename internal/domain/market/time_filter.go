package market

import (
	"strings"
	"time"

	"marketpulse/pkg/errors"
)

// TimeFilter is a user-facing lookback such as "month"
type TimeFilter string

const (
	FilterYear  TimeFilter = "year"
	FilterMonth TimeFilter = "month"
	FilterWeek  TimeFilter = "week"
	FilterDay   TimeFilter = "day"
)

// Window is a concrete fetch range with its bar interval
type Window struct {
	Start    time.Time
	End      time.Time
	Interval string
}

// Days returns the number of whole days covered by the window
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// ParseTimeFilter is case-insensitive
func ParseTimeFilter(s string) (TimeFilter, error) {
	f := TimeFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FilterYear, FilterMonth, FilterWeek, FilterDay:
		return f, nil
	}
	return "", errors.NewValidationError("time_filter", "expected year, month, week or day", s)
}

// Window resolves the filter against now. Year starts on January 1st of the
// previous year and month on the first day of the month 30 days back.
func (f TimeFilter) Window(now time.Time) (Window, error) {
	loc := now.Location()
	switch f {
	case FilterYear:
		start := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: now, Interval: "1d"}, nil
	case FilterMonth:
		back := now.AddDate(0, 0, -30)
		start := time.Date(back.Year(), back.Month(), 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: now, Interval: "1d"}, nil
	case FilterWeek:
		return Window{Start: now.AddDate(0, 0, -7), End: now, Interval: "1d"}, nil
	case FilterDay:
		return Window{Start: now.Add(-24 * time.Hour), End: now, Interval: "1h"}, nil
	}
	return Window{}, errors.NewValidationError("time_filter", "unknown filter", string(f))
}
