package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	jan := func(d int) time.Time { return date(2024, time.January, d) }

	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"disjoint before", jan(1), jan(5), jan(10), jan(15), false},
		{"disjoint after", jan(10), jan(15), jan(1), jan(5), false},
		{"identical", jan(1), jan(10), jan(1), jan(10), true},
		{"contained", jan(1), jan(31), jan(10), jan(15), true},
		{"contains", jan(10), jan(15), jan(1), jan(31), true},
		{"partial left", jan(1), jan(12), jan(10), jan(20), true},
		{"partial right", jan(10), jan(20), jan(1), jan(12), true},
		// half-open semantics: touching endpoints never conflict
		{"back to back", jan(1), jan(10), jan(10), jan(20), false},
		{"back to back reversed", jan(10), jan(20), jan(1), jan(10), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
		})
	}
}
