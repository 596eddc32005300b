// Package booking holds the pure booking core: price proration, the
// half-open date-range overlap test and the booking status state machine.
// Nothing in this package touches the database; the repository layer calls
// into it from within its transactions.
package booking

import (
	"math"
	"time"
)

// hoursPerDay is used to convert a date range into a day count. Dates are
// stored at midnight UTC, so the division is exact for well-formed input.
const hoursPerDay = 24

// Days returns the stay length of the half-open range [start, end) in
// calendar days, rounding partial days up. Ranges where end is not after
// start yield 0.
func Days(start, end time.Time) int64 {
	if !end.After(start) {
		return 0
	}
	return int64(math.Ceil(end.Sub(start).Hours() / hoursPerDay))
}

// ComputeTotal prorates a room's monthly rate over a stay. The daily rate
// is monthlyRate/30 using real division so that short stays are not
// underpriced by integer truncation; the result is rounded up to the next
// whole rupiah. A 30-day stay therefore prices at exactly the monthly
// rate. The result is monotonic non-decreasing in the stay length.
func ComputeTotal(monthlyRate int64, start, end time.Time) int64 {
	days := Days(start, end)
	if days == 0 || monthlyRate <= 0 {
		return 0
	}
	daily := float64(monthlyRate) / 30.0
	return int64(math.Ceil(daily * float64(days)))
}
