// Package billing turns purchases into dated obligation periods and rolls
// them up into per-creditor, per-month, per-week and per-payment-type totals.
//
// Everything here is a pure function of its arguments: callers load records
// and pass the reference date explicitly.
package billing

import "time"

// Date returns the calendar date of t as midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueDateIn builds the date in the given month for dueDay, clamped to the
// month's last day (31 -> 30 in April, 29/30/31 -> 28 or 29 in February).
// month may fall outside 1..12; it is normalized into the right year.
func DueDateIn(year int, month time.Month, dueDay int) time.Time {
	y, m, _ := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Date()
	if dueDay < 1 {
		dueDay = 1
	}
	if n := DaysIn(y, m); dueDay > n {
		dueDay = n
	}
	return time.Date(y, m, dueDay, 0, 0, 0, 0, time.UTC)
}

// ShiftMonths adds n months to t keeping its day of month, clamped to the
// target month (Jan 31 + 1 month -> Feb 28/29).
func ShiftMonths(t time.Time, n int) time.Time {
	d := Date(t)
	return DueDateIn(d.Year(), d.Month()+time.Month(n), d.Day())
}

// EndOfYear returns December 31 of t's year.
func EndOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}

// WeekBounds returns the Sunday and Saturday of the week containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	d := Date(t)
	start := d.AddDate(0, 0, -int(d.Weekday()))
	return start, start.AddDate(0, 0, 6)
}
