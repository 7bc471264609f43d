package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const minorPerMajor = 100

// Summary is the billable rollup for a single user over a date range.
// Money is carried as integer minor units (pence); the exact decimal
// amount is kept alongside so per-user output can report it without
// the floor applied.
type Summary struct {
	TotalMinutes int64
	TotalHours   float64
	Billable     decimal.Decimal // exact major-unit amount
	MinorUnits   int64           // floor(Billable * 100)
	RatePerMin   decimal.Decimal
	Entries      []TimeEntry
}

// Calculate converts an elapsed duration into billable amounts at the
// given per-minute rate. Pure: a zero rate yields zero money while the
// elapsed totals stay intact.
func Calculate(d time.Duration, ratePerMin decimal.Decimal) Summary {
	seconds := decimal.NewFromInt(int64(d / time.Second))
	billable := seconds.Div(decimal.NewFromInt(60)).Mul(ratePerMin)
	return Summary{
		TotalMinutes: int64(d / time.Minute),
		TotalHours:   d.Hours(),
		Billable:     billable,
		MinorUnits:   billable.Mul(decimal.NewFromInt(minorPerMajor)).Floor().IntPart(),
		RatePerMin:   ratePerMin,
	}
}

// AggregateSummary combines per-user summaries for the same period.
// Only integer minor units are summed, so multi-user totals carry no
// floating-point drift.
type AggregateSummary struct {
	TotalMinutes int64
	TotalHours   float64
	MinorUnits   int64
}

// Aggregate sums summaries. Addition is commutative, so the result does
// not depend on input order.
func Aggregate(summaries []Summary) AggregateSummary {
	var agg AggregateSummary
	for _, s := range summaries {
		agg.TotalMinutes += s.TotalMinutes
		agg.TotalHours += s.TotalHours
		agg.MinorUnits += s.MinorUnits
	}
	return agg
}

// AverageRatePerMin returns the blended per-minute rate in major units.
// The second return is false when no minutes were recorded, in which
// case the average is undefined.
func (a AggregateSummary) AverageRatePerMin() (decimal.Decimal, bool) {
	if a.TotalMinutes == 0 {
		return decimal.Decimal{}, false
	}
	avg := decimal.NewFromInt(a.MinorUnits).
		Div(decimal.NewFromInt(a.TotalMinutes)).
		Div(decimal.NewFromInt(minorPerMajor))
	return avg, true
}

// Display renders minor units as a major-unit currency string, e.g. "£1.50".
func Display(symbol string, minorUnits int64) string {
	major := decimal.NewFromInt(minorUnits).Div(decimal.NewFromInt(minorPerMajor))
	return symbol + major.StringFixed(2)
}
