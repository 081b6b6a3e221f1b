package payroll

import "time"

// MonthKey identifies a calendar month. A two-field value type keeps map keys
// comparable without string parsing across year boundaries.
type MonthKey struct {
	Year  int
	Month time.Month
}

func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

func SameMonth(a, b time.Time) bool {
	return MonthKeyOf(a) == MonthKeyOf(b)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthsBetween returns the first day of every month from start's month up to,
// but excluding, endExclusive's month, in chronological order. The result is
// empty when start's month is not before endExclusive's month.
func MonthsBetween(start, endExclusive time.Time) []time.Time {
	from := firstOfMonth(start)
	until := firstOfMonth(endExclusive)

	months := make([]time.Time, 0, 12)
	for cursor := from; cursor.Before(until); cursor = cursor.AddDate(0, 1, 0) {
		months = append(months, cursor)
	}
	return months
}

// FridaysInMonth returns the days-of-month that fall on a Friday, ascending.
// Every Gregorian month has at least four Fridays, but callers must not rely
// on the slice being non-empty.
func FridaysInMonth(year int, month time.Month) []int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()

	fridays := make([]int, 0, 5)
	for day := 1; day <= lastDay; day++ {
		if time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday() == time.Friday {
			fridays = append(fridays, day)
		}
	}
	return fridays
}
