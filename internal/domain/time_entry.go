package domain

import "time"

// TimeEntry represents one recorded interval of work as reported by the
// time-tracking provider.
type TimeEntry struct {
	Start time.Time
	End   time.Time
}

// Duration returns the elapsed time of the entry.
func (e TimeEntry) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Tally sums the elapsed durations of entries. Entries are trusted as
// given: nothing is dropped, reordered or deduplicated. An empty input
// tallies to zero.
func Tally(entries []TimeEntry) time.Duration {
	var total time.Duration
	for _, e := range entries {
		total += e.Duration()
	}
	return total
}
