package util

import "time"

// istOffset is UTC+5:30. Outlets operate on Indian Standard Time; the
// business date boundary follows the outlet clock, not the server clock.
var istOffset = 5*time.Hour + 30*time.Minute

// BusinessDate returns the calendar date (midnight UTC) that now falls on in
// IST. A sale at 01:00 UTC belongs to the IST day already in progress.
func BusinessDate(now time.Time) time.Time {
	shifted := now.UTC().Add(istOffset)
	return time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC)
}

// PreviousDate returns the calendar date one day before d.
func PreviousDate(d time.Time) time.Time {
	return d.AddDate(0, 0, -1)
}

// MonthStart truncates d to the first day of its month.
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last calendar dates of d's month.
func MonthBounds(d time.Time) (time.Time, time.Time) {
	start := MonthStart(d)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// DateOf normalizes an arbitrary timestamp to its calendar date at midnight
// UTC, the canonical key for business day rows.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
