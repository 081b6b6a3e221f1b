package payroll

import (
	"testing"
	"time"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestSameMonth(t *testing.T) {
	if !SameMonth(date(2025, time.March, 1), date(2025, time.March, 31)) {
		t.Fatalf("expected same month for two March dates")
	}
	if SameMonth(date(2025, time.March, 31), date(2025, time.April, 1)) {
		t.Fatalf("expected different months across the March/April boundary")
	}
	if SameMonth(date(2024, time.March, 15), date(2025, time.March, 15)) {
		t.Fatalf("expected different months across years")
	}
}

func TestMonthsBetween(t *testing.T) {
	months := MonthsBetween(date(2025, time.January, 17), date(2025, time.April, 3))
	if len(months) != 3 {
		t.Fatalf("expected 3 months, got %d", len(months))
	}
	want := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.February, 1),
		date(2025, time.March, 1),
	}
	for i, month := range months {
		if !month.Equal(want[i]) {
			t.Fatalf("month %d: expected %v, got %v", i, want[i], month)
		}
	}
}

func TestMonthsBetweenSameMonthIsEmpty(t *testing.T) {
	months := MonthsBetween(date(2025, time.June, 1), date(2025, time.June, 30))
	if len(months) != 0 {
		t.Fatalf("expected no completed months within a single month, got %d", len(months))
	}
}

func TestMonthsBetweenStartAfterEndIsEmpty(t *testing.T) {
	months := MonthsBetween(date(2025, time.August, 1), date(2025, time.March, 1))
	if len(months) != 0 {
		t.Fatalf("expected empty sequence when start is after end, got %d", len(months))
	}
}

func TestMonthsBetweenCrossesYearBoundary(t *testing.T) {
	months := MonthsBetween(date(2024, time.November, 20), date(2025, time.February, 5))
	if len(months) != 3 {
		t.Fatalf("expected 3 months across year boundary, got %d", len(months))
	}
	if months[0].Month() != time.November || months[2].Month() != time.January {
		t.Fatalf("unexpected month sequence: %v", months)
	}
	if months[2].Year() != 2025 {
		t.Fatalf("expected January 2025, got %v", months[2])
	}
}

func TestFridaysInMonth(t *testing.T) {
	// August 2025: Fridays on 1, 8, 15, 22, 29.
	fridays := FridaysInMonth(2025, time.August)
	want := []int{1, 8, 15, 22, 29}
	if len(fridays) != len(want) {
		t.Fatalf("expected %d fridays, got %d", len(want), len(fridays))
	}
	for i, day := range fridays {
		if day != want[i] {
			t.Fatalf("friday %d: expected day %d, got %d", i, want[i], day)
		}
	}
}

func TestFridaysInMonthFebruaryLeapYear(t *testing.T) {
	// February 2024 has 29 days; Fridays on 2, 9, 16, 23.
	fridays := FridaysInMonth(2024, time.February)
	if len(fridays) != 4 {
		t.Fatalf("expected 4 fridays, got %d", len(fridays))
	}
	if fridays[0] != 2 || fridays[3] != 23 {
		t.Fatalf("unexpected fridays: %v", fridays)
	}
}
