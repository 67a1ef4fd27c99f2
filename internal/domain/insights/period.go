package insights

import (
	"fmt"
	"strings"
	"time"
)

// Period restricts dashboard views to a calendar window around now
type Period string

const (
	PeriodAll     Period = "All"
	PeriodYear    Period = "This Year"
	PeriodQuarter Period = "This Quarter"
	PeriodMonth   Period = "This Month"
)

// ParsePeriod accepts short names (all, year, quarter, month) and the display
// labels. An empty string means All.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PeriodAll, nil
	case "year", "this year", "this_year":
		return PeriodYear, nil
	case "quarter", "this quarter", "this_quarter":
		return PeriodQuarter, nil
	case "month", "this month", "this_month":
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Dated is implemented by every record kind
type Dated interface {
	RecordDate() time.Time
}

// Contains reports whether d falls inside the period anchored at now
func (p Period) Contains(d, now time.Time) bool {
	switch p {
	case PeriodYear:
		return d.Year() == now.Year()
	case PeriodMonth:
		return d.Year() == now.Year() && d.Month() == now.Month()
	case PeriodQuarter:
		return d.Year() == now.Year() && quarter(d) == quarter(now)
	}
	return true
}

// quarter is the zero-based quarter index of t's month
func quarter(t time.Time) int {
	return (int(t.Month()) - 1) / 3
}

// FilterByPeriod keeps the records inside the period. All returns recs as is;
// other periods return a new slice in the original order.
func FilterByPeriod[T Dated](recs []T, period Period, now time.Time) []T {
	if period == PeriodAll || period == "" {
		return recs
	}
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		if period.Contains(r.RecordDate(), now) {
			out = append(out, r)
		}
	}
	return out
}
