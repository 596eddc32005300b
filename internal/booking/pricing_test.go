package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDays(t *testing.T) {
	assert.Equal(t, int64(30), Days(date(2024, 1, 1), date(2024, 1, 31)))
	assert.Equal(t, int64(1), Days(date(2024, 1, 1), date(2024, 1, 2)))
	assert.Equal(t, int64(0), Days(date(2024, 1, 2), date(2024, 1, 2)))
	assert.Equal(t, int64(0), Days(date(2024, 1, 3), date(2024, 1, 2)))
	// partial days round up
	assert.Equal(t, int64(2), Days(date(2024, 1, 1), date(2024, 1, 2).Add(6*time.Hour)))
}

func TestComputeTotal(t *testing.T) {
	// 30-day stay at 900000/month prices at exactly the monthly rate
	assert.Equal(t, int64(900000), ComputeTotal(900000, date(2024, 1, 1), date(2024, 1, 31)))

	// one day is ceil(900000/30) = 30000
	assert.Equal(t, int64(30000), ComputeTotal(900000, date(2024, 1, 1), date(2024, 1, 2)))

	// real division: 100000/30 = 3333.33..., one day rounds up to 3334,
	// not down to 3333 as integer truncation would give
	assert.Equal(t, int64(3334), ComputeTotal(100000, date(2024, 1, 1), date(2024, 1, 2)))

	// degenerate inputs
	assert.Equal(t, int64(0), ComputeTotal(900000, date(2024, 1, 5), date(2024, 1, 5)))
	assert.Equal(t, int64(0), ComputeTotal(0, date(2024, 1, 1), date(2024, 1, 31)))
}

func TestComputeTotalMonotonic(t *testing.T) {
	start := date(2024, 3, 1)
	prev := int64(0)
	for d := 1; d <= 120; d++ {
		total := ComputeTotal(750000, start, start.AddDate(0, 0, d))
		assert.GreaterOrEqual(t, total, prev, "total must not decrease as the stay grows (day %d)", d)
		prev = total
	}
}
