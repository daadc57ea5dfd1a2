package booking

import "time"

// Weeks run Monday 00:00 to the following Monday 00:00, UTC.  A
// Sunday belongs to the week that started the previous Monday.

// WeekStart returns the Monday 00:00 UTC boundary of the week
// containing d.
func WeekStart(d time.Time) time.Time {
	d = d.UTC()
	wd := int(d.Weekday())
	diff := 1 - wd
	if wd == 0 { // Sunday is day 7 of the prior week
		diff = -6
	}
	m := d.AddDate(0, 0, diff)
	return time.Date(m.Year(), m.Month(), m.Day(), 0, 0, 0, 0, time.UTC)
}

// NextWeekStart returns the exclusive upper bound of the week
// containing d: the following Monday 00:00 UTC.
func NextWeekStart(d time.Time) time.Time {
	return WeekStart(d).AddDate(0, 0, 7)
}

// SameWeek reports whether a and b fall inside the same
// Monday-to-Sunday window.
func SameWeek(a, b time.Time) bool {
	return WeekStart(a).Equal(WeekStart(b))
}
