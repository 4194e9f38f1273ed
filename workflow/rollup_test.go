package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fact(id int, date time.Time, team, worker int, teamName, workerName string, hours, wage, revenue string) models.LaborDailyFact {
	return models.LaborDailyFact{
		ID:          id,
		Date:        date,
		LocationID:  1,
		TeamID:      team,
		TeamName:    teamName,
		WorkerID:    worker,
		WorkerName:  workerName,
		HoursWorked: decimal.RequireFromString(hours),
		WageCost:    decimal.RequireFromString(wage),
		Revenue:     decimal.RequireFromString(revenue),
	}
}

func findChild(n *models.TimeNode, key string) *models.TimeNode {
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

func rollFacts(t *testing.T, facts []models.LaborDailyFact) *models.LaborRollup {
	t.Helper()
	r := NewTimeEntityRollup(testLogger())
	return r.Roll(models.FactFilter{LocationID: 1, From: day(2025, 1, 1), To: day(2025, 12, 31)}, facts)
}

func TestTimeEntityRollup_TreeShapeAndParentSums(t *testing.T) {
	facts := []models.LaborDailyFact{
		fact(1, day(2025, 3, 18), 10, 100, "Keuken", "Anna", "6", "90", "300"),
		fact(2, day(2025, 3, 18), 10, 101, "Keuken", "Bram", "4", "60", "200"),
		fact(3, day(2025, 3, 19), 11, 102, "Bediening", "Cees", "8", "100", "500"),
	}
	rollup := rollFacts(t, facts)

	if len(rollup.Years) != 1 || rollup.Years[0].Key != "2025" {
		t.Fatalf("years = %+v", rollup.Years)
	}
	year := rollup.Years[0]
	month := findChild(year, "2025-03")
	if month == nil {
		t.Fatal("month 2025-03 missing")
	}
	week := findChild(month, "2025-W12")
	if week == nil {
		t.Fatal("week 2025-W12 missing")
	}
	if len(week.Children) != 2 {
		t.Fatalf("week has %d days, want 2", len(week.Children))
	}

	// Every parent's totals equal the sum of its children.
	wantHours := decimal.NewFromInt(18)
	for _, node := range []*models.TimeNode{year, month, week} {
		if !node.TotalHoursWorked.Equal(wantHours) {
			t.Fatalf("%s hours = %s, want %s", node.Key, node.TotalHoursWorked, wantHours)
		}
		childSum := decimal.Zero
		for _, c := range node.Children {
			childSum = childSum.Add(c.TotalHoursWorked)
		}
		if !childSum.Equal(node.TotalHoursWorked) {
			t.Fatalf("%s children sum to %s, node has %s", node.Key, childSum, node.TotalHoursWorked)
		}
	}

	// Entity breakdown at the week node.
	if len(week.Locations) != 1 {
		t.Fatalf("week locations = %d", len(week.Locations))
	}
	loc := week.Locations[0]
	if len(loc.Teams) != 2 {
		t.Fatalf("teams = %d, want 2", len(loc.Teams))
	}
	teamSum := decimal.Zero
	for _, team := range loc.Teams {
		teamSum = teamSum.Add(team.TotalHoursWorked)
		workerSum := decimal.Zero
		for _, w := range team.Workers {
			workerSum = workerSum.Add(w.TotalHoursWorked)
		}
		if !workerSum.Equal(team.TotalHoursWorked) {
			t.Fatalf("team %d workers sum to %s, team has %s", team.TeamID, workerSum, team.TotalHoursWorked)
		}
	}
	if !teamSum.Equal(loc.TotalHoursWorked) {
		t.Fatalf("teams sum to %s, location has %s", teamSum, loc.TotalHoursWorked)
	}
}

func TestTimeEntityRollup_RatioOfSums(t *testing.T) {
	// A short and a long shift with equal revenue: the weekly revenue/hour is
	// 200/10 = 20, not the 31.25 that averaging the two daily ratios would give.
	facts := []models.LaborDailyFact{
		fact(1, day(2025, 3, 18), 10, 100, "Keuken", "Anna", "2", "30", "100"),
		fact(2, day(2025, 3, 19), 10, 100, "Keuken", "Anna", "8", "120", "100"),
	}
	rollup := rollFacts(t, facts)

	week := findChild(findChild(rollup.Years[0], "2025-03"), "2025-W12")
	if week == nil {
		t.Fatal("week 2025-W12 missing")
	}
	if !week.RevenuePerHour.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("RevenuePerHour = %s, want 20", week.RevenuePerHour)
	}
	// wage 150 over revenue 200 → 75%
	if !week.LaborCostPercentage.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("LaborCostPercentage = %s, want 75", week.LaborCostPercentage)
	}

	worker := week.Locations[0].Teams[0].Workers[0]
	if !worker.RevenuePerHour.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("worker RevenuePerHour = %s, want 20", worker.RevenuePerHour)
	}
}

func TestTimeEntityRollup_WeeksClippedAtMonthBoundary(t *testing.T) {
	// ISO week 2025-W14 runs Mon Mar 31 through Sun Apr 6. Each month carries
	// only its own days of that week, so month totals stay exact.
	facts := []models.LaborDailyFact{
		fact(1, day(2025, 3, 31), 10, 100, "Keuken", "Anna", "5", "75", "250"),
		fact(2, day(2025, 4, 1), 10, 100, "Keuken", "Anna", "3", "45", "150"),
	}
	rollup := rollFacts(t, facts)

	year := rollup.Years[0]
	march := findChild(year, "2025-03")
	april := findChild(year, "2025-04")
	if march == nil || april == nil {
		t.Fatal("expected both months in the tree")
	}

	marchWeek := findChild(march, "2025-W14")
	aprilWeek := findChild(april, "2025-W14")
	if marchWeek == nil || aprilWeek == nil {
		t.Fatal("expected the week under both months")
	}
	if !marchWeek.TotalHoursWorked.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("march segment hours = %s, want 5", marchWeek.TotalHoursWorked)
	}
	if !aprilWeek.TotalHoursWorked.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("april segment hours = %s, want 3", aprilWeek.TotalHoursWorked)
	}
	if !march.TotalHoursWorked.Equal(decimal.NewFromInt(5)) || !april.TotalHoursWorked.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("month totals = %s / %s", march.TotalHoursWorked, april.TotalHoursWorked)
	}
	if !year.TotalHoursWorked.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("year hours = %s, want 8", year.TotalHoursWorked)
	}
}

func TestTimeEntityRollup_DegradedFacts(t *testing.T) {
	facts := []models.LaborDailyFact{
		fact(1, day(2025, 3, 18), 10, 100, "Keuken", "Anna", "4", "60", "200"),
		// Worker unresolved: counts in totals and in the team, not as a worker.
		fact(2, day(2025, 3, 18), 10, 0, "Keuken", "", "2", "30", "100"),
		// Team unresolved: counts in totals and the location only.
		fact(3, day(2025, 3, 18), 0, 0, "", "", "1", "15", "50"),
	}
	rollup := rollFacts(t, facts)

	if rollup.DegradedFacts != 2 {
		t.Fatalf("DegradedFacts = %d, want 2", rollup.DegradedFacts)
	}

	year := rollup.Years[0]
	if !year.TotalHoursWorked.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("year hours = %s, want 7 (degraded facts included)", year.TotalHoursWorked)
	}

	loc := year.Locations[0]
	if !loc.TotalHoursWorked.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("location hours = %s, want 7", loc.TotalHoursWorked)
	}
	if len(loc.Teams) != 1 {
		t.Fatalf("teams = %d, want 1", len(loc.Teams))
	}
	team := loc.Teams[0]
	if !team.TotalHoursWorked.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("team hours = %s, want 6", team.TotalHoursWorked)
	}
	if len(team.Workers) != 1 || !team.Workers[0].TotalHoursWorked.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("workers = %+v", team.Workers)
	}
}

func TestTimeEntityRollup_NameIndexBackfillsEmptyNames(t *testing.T) {
	// The second delivery of worker 100 arrives without display names; the
	// index built up front fills them in regardless of fact order.
	facts := []models.LaborDailyFact{
		fact(1, day(2025, 3, 18), 10, 100, "", "", "2", "30", "100"),
		fact(2, day(2025, 3, 19), 10, 100, "Keuken", "Anna", "3", "45", "150"),
	}
	rollup := rollFacts(t, facts)

	team := rollup.Years[0].Locations[0].Teams[0]
	if team.TeamName != "Keuken" {
		t.Fatalf("TeamName = %q, want Keuken", team.TeamName)
	}
	if team.Workers[0].WorkerName != "Anna" {
		t.Fatalf("WorkerName = %q, want Anna", team.Workers[0].WorkerName)
	}
}

func TestTimeEntityRollup_Empty(t *testing.T) {
	rollup := rollFacts(t, nil)
	if len(rollup.Years) != 0 || rollup.DegradedFacts != 0 {
		t.Fatalf("rollup = %+v", rollup)
	}
}
