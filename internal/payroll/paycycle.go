package payroll

import "time"

// PayCycleWeek returns the one-indexed Friday-bounded week of the month that
// now falls into. Days up to and including the first Friday are week 1; each
// span (f[i], f[i+1]] is week i+2; days after the last Friday stay in the
// final week bucket.
func PayCycleWeek(now time.Time) int {
	fridays := FridaysInMonth(now.Year(), now.Month())
	if len(fridays) == 0 {
		return 1
	}

	day := now.Day()
	if day <= fridays[0] {
		return 1
	}
	for i := 0; i+1 < len(fridays); i++ {
		if day > fridays[i] && day <= fridays[i+1] {
			return i + 2
		}
	}
	return len(fridays)
}
