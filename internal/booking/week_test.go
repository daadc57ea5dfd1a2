package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/novafit/gym-class-reservation/internal/booking"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday maps to itself", date(2026, 3, 2), date(2026, 3, 2)},
		{"wednesday maps back to monday", date(2026, 3, 4), date(2026, 3, 2)},
		{"saturday maps back to monday", date(2026, 3, 7), date(2026, 3, 2)},
		{"sunday belongs to the prior monday", date(2026, 3, 8), date(2026, 3, 2)},
		{"next monday starts a new week", date(2026, 3, 9), date(2026, 3, 9)},
		{"time of day is dropped", time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC), date(2026, 3, 2)},
		{"year boundary", date(2026, 1, 1), date(2025, 12, 29)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, booking.WeekStart(tc.in))
		})
	}
}

func TestNextWeekStart(t *testing.T) {
	assert.Equal(t, date(2026, 3, 9), booking.NextWeekStart(date(2026, 3, 4)))
	assert.Equal(t, date(2026, 3, 9), booking.NextWeekStart(date(2026, 3, 8)))
}

func TestSameWeek(t *testing.T) {
	assert.True(t, booking.SameWeek(date(2026, 3, 2), date(2026, 3, 8)))
	assert.False(t, booking.SameWeek(date(2026, 3, 8), date(2026, 3, 9)))
}
