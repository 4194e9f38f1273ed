package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

func fixedNow(y int, m time.Month, d int) func() time.Time {
	return func() time.Time {
		return time.Date(y, m, d, 14, 30, 0, 0, time.UTC)
	}
}

func TestFreshnessPolicy_DefaultClock(t *testing.T) {
	// A zero policy falls back to the wall clock.
	var p FreshnessPolicy
	if !p.MonthEligible(day(2000, 1, 1)) {
		t.Fatal("a month decades in the past must be eligible")
	}
	if p.MonthEligible(day(9000, 1, 1)) {
		t.Fatal("a month in the far future must not be eligible")
	}
}

func TestFreshnessPolicy_MonthEligibility(t *testing.T) {
	// Today is 2025-08-29; months are held back for 30 days after their start.
	p := FreshnessPolicy{Now: fixedNow(2025, 8, 29)}

	cases := []struct {
		monthStart time.Time
		want       bool
	}{
		{day(2025, 6, 1), true},
		{day(2025, 7, 1), true},
		{day(2025, 7, 29), true},  // 31 days ago
		{day(2025, 7, 30), false}, // exactly 30 days ago
		{day(2025, 8, 1), false},  // current month
	}
	for _, tc := range cases {
		if got := p.MonthEligible(tc.monthStart); got != tc.want {
			t.Fatalf("MonthEligible(%s) = %v, want %v", models.DayKey(tc.monthStart), got, tc.want)
		}
	}
}

func TestFreshnessPolicy_WeekEligibility(t *testing.T) {
	// Today is Monday 2025-09-01; weeks are held back for 7 days after their
	// start, so the week that started exactly a week ago is still closed.
	p := FreshnessPolicy{Now: fixedNow(2025, 9, 1)}

	if p.WeekEligible(day(2025, 8, 25)) {
		t.Fatal("week started exactly 7 days ago must not be eligible")
	}
	if !p.WeekEligible(day(2025, 8, 18)) {
		t.Fatal("week started 14 days ago must be eligible")
	}
	if p.WeekEligible(day(2025, 9, 1)) {
		t.Fatal("current week must not be eligible")
	}
}

func TestFreshnessPolicy_DayEligibility(t *testing.T) {
	// Today is Friday 2025-08-29; only earlier days of the current ISO week
	// (Mon 2025-08-25 onward) are eligible.
	p := FreshnessPolicy{Now: fixedNow(2025, 8, 29)}

	cases := []struct {
		d    time.Time
		want bool
	}{
		{day(2025, 8, 29), false}, // today
		{day(2025, 8, 28), true},
		{day(2025, 8, 25), true},  // Monday of the current week
		{day(2025, 8, 24), false}, // Sunday, previous week
		{day(2025, 8, 30), false}, // future
	}
	for _, tc := range cases {
		if got := p.DayEligible(tc.d); got != tc.want {
			t.Fatalf("DayEligible(%s) = %v, want %v", models.DayKey(tc.d), got, tc.want)
		}
	}
}

func TestFreshnessPolicy_ApplyMergesClippedWeeks(t *testing.T) {
	// The tree clips week 2025-W14 across March and April; the exposed week
	// section must carry it whole again, with the entity breakdown merged and
	// the ratios recomputed from the merged sums.
	facts := []models.LaborDailyFact{
		fact(1, day(2025, 3, 31), 10, 100, "Keuken", "Anna", "5", "75", "250"),
		fact(2, day(2025, 4, 1), 10, 100, "Keuken", "Anna", "3", "45", "150"),
	}
	rollup := rollFacts(t, facts)

	p := FreshnessPolicy{Now: fixedNow(2026, 1, 15)}
	exposure := p.Apply(rollup)

	if len(exposure.HoursByYear) != 1 || exposure.HoursByYear[0].Children != nil {
		t.Fatalf("HoursByYear = %+v", exposure.HoursByYear)
	}
	if len(exposure.HoursByMonth) != 2 {
		t.Fatalf("HoursByMonth = %d sections, want 2", len(exposure.HoursByMonth))
	}
	if len(exposure.HoursByDay) != 0 {
		t.Fatalf("HoursByDay = %d, want 0 (nothing in the current week)", len(exposure.HoursByDay))
	}

	if len(exposure.HoursByWeek) != 1 {
		t.Fatalf("HoursByWeek = %d sections, want 1 merged week", len(exposure.HoursByWeek))
	}
	week := exposure.HoursByWeek[0]
	if week.Key != "2025-W14" {
		t.Fatalf("week key = %s", week.Key)
	}
	if !week.TotalHoursWorked.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("merged week hours = %s, want 8", week.TotalHoursWorked)
	}
	// 400 revenue over 8 hours.
	if !week.RevenuePerHour.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("merged RevenuePerHour = %s, want 50", week.RevenuePerHour)
	}

	if len(week.Locations) != 1 || len(week.Locations[0].Teams) != 1 {
		t.Fatalf("merged breakdown = %+v", week.Locations)
	}
	workers := week.Locations[0].Teams[0].Workers
	if len(workers) != 1 || !workers[0].TotalHoursWorked.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("merged workers = %+v", workers)
	}
}

func TestFreshnessPolicy_ApplyFiltersByGranularity(t *testing.T) {
	// Today is Friday 2025-08-29. One fact in the current week before today,
	// one today, one in the closed previous week.
	facts := []models.LaborDailyFact{
		fact(1, day(2025, 8, 26), 10, 100, "Keuken", "Anna", "4", "60", "200"),
		fact(2, day(2025, 8, 29), 10, 100, "Keuken", "Anna", "6", "90", "300"),
		fact(3, day(2025, 8, 20), 10, 100, "Keuken", "Anna", "5", "75", "250"),
	}
	rollup := rollFacts(t, facts)

	p := FreshnessPolicy{Now: fixedNow(2025, 8, 29)}
	exposure := p.Apply(rollup)

	// August itself is too fresh for the month section.
	if len(exposure.HoursByMonth) != 0 {
		t.Fatalf("HoursByMonth = %d, want 0", len(exposure.HoursByMonth))
	}
	// Week 2025-W34 (Mon Aug 18) is closed; the current week is not.
	if len(exposure.HoursByWeek) != 1 || exposure.HoursByWeek[0].Key != "2025-W34" {
		t.Fatalf("HoursByWeek = %+v", exposure.HoursByWeek)
	}
	// Only Tuesday of the current week is day-visible.
	if len(exposure.HoursByDay) != 1 || exposure.HoursByDay[0].Key != "2025-08-26" {
		t.Fatalf("HoursByDay = %+v", exposure.HoursByDay)
	}
	// The year section always carries the full range.
	if len(exposure.HoursByYear) != 1 || !exposure.HoursByYear[0].TotalHoursWorked.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("HoursByYear = %+v", exposure.HoursByYear)
	}
}
