package domain

import "time"

// DateRange is an inclusive range of calendar dates in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the range runs forward in time.
func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}

// MonthRange returns [first day, last day] of the given month. The last
// day is derived by normalizing day zero of the following month, so month
// lengths and leap-year February come out of the calendar, not a table.
func MonthRange(year int, month time.Month) DateRange {
	return DateRange{
		Start: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC),
	}
}

// ThisMonth returns the month range containing now.
func ThisMonth(now time.Time) DateRange {
	return MonthRange(now.Year(), now.Month())
}
