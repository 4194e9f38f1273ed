package workflow

import (
	"sort"
	"time"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

// FreshnessPolicy decides which granularities of a rollup are mature enough
// to expose. Source facts keep arriving for a while after a period ends;
// serving a coarse aggregate inside that window risks silently stale numbers,
// so coarse levels are withheld until the window closes while day data stays
// visible for the current, still-mutable week. The policy filters exposure
// only; the persisted document always carries every level.
type FreshnessPolicy struct {
	Now func() time.Time
}

func (p FreshnessPolicy) today() time.Time {
	nowFn := p.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthEligible: the month's first day must be more than 30 days in the past.
func (p FreshnessPolicy) MonthEligible(monthStart time.Time) bool {
	return monthStart.Before(p.today().AddDate(0, 0, -30))
}

// WeekEligible: the ISO week's first day must be more than 7 days in the past.
func (p FreshnessPolicy) WeekEligible(weekStart time.Time) bool {
	return weekStart.Before(p.today().AddDate(0, 0, -7))
}

// DayEligible: only days of the current ISO week, excluding today. Older days
// are served through their (by then mature) week aggregate instead.
func (p FreshnessPolicy) DayEligible(day time.Time) bool {
	today := p.today()
	if !day.Before(today) {
		return false
	}
	return models.ISOWeekStart(day).Equal(models.ISOWeekStart(today))
}

// Apply flattens the rollup tree into per-granularity sections and drops the
// nodes that are not yet eligible. Week segments that were clipped per month
// inside the tree are merged back into whole ISO weeks before filtering.
func (p FreshnessPolicy) Apply(r *models.LaborRollup) *models.LaborRollupExposure {
	exposure := &models.LaborRollupExposure{AsOf: p.today()}

	var allDays []*models.TimeNode
	for _, year := range r.Years {
		exposure.HoursByYear = append(exposure.HoursByYear, sansChildren(year))
		for _, month := range year.Children {
			if p.MonthEligible(month.PeriodStart) {
				exposure.HoursByMonth = append(exposure.HoursByMonth, sansChildren(month))
			}
			for _, week := range month.Children {
				allDays = append(allDays, week.Children...)
			}
		}
	}

	for _, week := range mergeIntoWeeks(allDays) {
		if p.WeekEligible(week.PeriodStart) {
			exposure.HoursByWeek = append(exposure.HoursByWeek, week)
		}
	}
	for _, day := range allDays {
		if p.DayEligible(day.PeriodStart) {
			exposure.HoursByDay = append(exposure.HoursByDay, sansChildren(day))
		}
	}
	return exposure
}

func sansChildren(n *models.TimeNode) *models.TimeNode {
	clone := *n
	clone.Children = nil
	return &clone
}

// mergeIntoWeeks rebuilds whole ISO weeks from day nodes, summing totals and
// entity breakdowns and recomputing the ratios from the merged sums.
func mergeIntoWeeks(days []*models.TimeNode) []*models.TimeNode {
	type weekMerge struct {
		node      *models.TimeNode
		locations map[int]*models.LocationNode
		teams     map[int]map[int]*models.TeamNode
		workers   map[int]map[int]map[int]*models.WorkerNode
	}

	weeks := map[string]*weekMerge{}
	for _, day := range days {
		key := models.ISOWeekKey(day.PeriodStart)
		w, ok := weeks[key]
		if !ok {
			w = &weekMerge{
				node: &models.TimeNode{
					Granularity: models.GranularityWeek,
					Key:         key,
					PeriodStart: models.ISOWeekStart(day.PeriodStart),
				},
				locations: map[int]*models.LocationNode{},
				teams:     map[int]map[int]*models.TeamNode{},
				workers:   map[int]map[int]map[int]*models.WorkerNode{},
			}
			weeks[key] = w
		}
		w.node.Accumulate(day.TotalHoursWorked, day.TotalWageCost, day.TotalRevenue)

		for _, loc := range day.Locations {
			mergedLoc, ok := w.locations[loc.LocationID]
			if !ok {
				mergedLoc = &models.LocationNode{LocationID: loc.LocationID}
				w.locations[loc.LocationID] = mergedLoc
				w.teams[loc.LocationID] = map[int]*models.TeamNode{}
				w.workers[loc.LocationID] = map[int]map[int]*models.WorkerNode{}
			}
			mergedLoc.Accumulate(loc.TotalHoursWorked, loc.TotalWageCost, loc.TotalRevenue)

			for _, team := range loc.Teams {
				mergedTeam, ok := w.teams[loc.LocationID][team.TeamID]
				if !ok {
					mergedTeam = &models.TeamNode{TeamID: team.TeamID, TeamName: team.TeamName}
					w.teams[loc.LocationID][team.TeamID] = mergedTeam
					w.workers[loc.LocationID][team.TeamID] = map[int]*models.WorkerNode{}
				}
				mergedTeam.Accumulate(team.TotalHoursWorked, team.TotalWageCost, team.TotalRevenue)

				for _, worker := range team.Workers {
					mergedWorker, ok := w.workers[loc.LocationID][team.TeamID][worker.WorkerID]
					if !ok {
						mergedWorker = &models.WorkerNode{WorkerID: worker.WorkerID, WorkerName: worker.WorkerName}
						w.workers[loc.LocationID][team.TeamID][worker.WorkerID] = mergedWorker
					}
					mergedWorker.Accumulate(worker.TotalHoursWorked, worker.TotalWageCost, worker.TotalRevenue)
				}
			}
		}
	}

	keys := make([]string, 0, len(weeks))
	for k := range weeks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*models.TimeNode, 0, len(keys))
	for _, key := range keys {
		w := weeks[key]
		w.node.ComputeRatios()

		locIDs := make([]int, 0, len(w.locations))
		for id := range w.locations {
			locIDs = append(locIDs, id)
		}
		sort.Ints(locIDs)
		for _, locID := range locIDs {
			loc := w.locations[locID]
			loc.ComputeRatios()

			teamIDs := make([]int, 0, len(w.teams[locID]))
			for id := range w.teams[locID] {
				teamIDs = append(teamIDs, id)
			}
			sort.Ints(teamIDs)
			for _, teamID := range teamIDs {
				team := w.teams[locID][teamID]
				team.ComputeRatios()

				workerIDs := make([]int, 0, len(w.workers[locID][teamID]))
				for id := range w.workers[locID][teamID] {
					workerIDs = append(workerIDs, id)
				}
				sort.Ints(workerIDs)
				for _, workerID := range workerIDs {
					worker := w.workers[locID][teamID][workerID]
					worker.ComputeRatios()
					team.Workers = append(team.Workers, worker)
				}
				loc.Teams = append(loc.Teams, team)
			}
			w.node.Locations = append(w.node.Locations, loc)
		}
		out = append(out, w.node)
	}
	return out
}
