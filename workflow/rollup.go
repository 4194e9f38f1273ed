package workflow

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

// TimeEntityRollup folds flat daily facts into the nested aggregate tree:
// year → month → week → day, each node further split location → team →
// worker. All sums are accumulated first; ratios are derived per node once
// its sums are final (ratio of sums, never sum of ratios).
//
// A week that crosses a month boundary is clipped per month, so every parent
// total equals the sum of its children exactly.
type TimeEntityRollup struct {
	log *logrus.Logger
}

func NewTimeEntityRollup(log *logrus.Logger) *TimeEntityRollup {
	return &TimeEntityRollup{log: log}
}

type workerAccum struct {
	name   string
	totals models.NodeTotals
}

type teamAccum struct {
	name    string
	totals  models.NodeTotals
	workers map[int]*workerAccum
}

type locationAccum struct {
	totals models.NodeTotals
	teams  map[int]*teamAccum
}

type timeAccum struct {
	granularity models.Granularity
	key         string
	periodStart time.Time
	totals      models.NodeTotals
	locations   map[int]*locationAccum
	children    map[string]*timeAccum
}

func newTimeAccum(g models.Granularity, key string, start time.Time) *timeAccum {
	return &timeAccum{
		granularity: g,
		key:         key,
		periodStart: start,
		locations:   map[int]*locationAccum{},
		children:    map[string]*timeAccum{},
	}
}

func (t *timeAccum) child(g models.Granularity, key string, start time.Time) *timeAccum {
	c, ok := t.children[key]
	if !ok {
		c = newTimeAccum(g, key, start)
		t.children[key] = c
	}
	return c
}

func (r *TimeEntityRollup) Roll(filter models.FactFilter, facts []models.LaborDailyFact) *models.LaborRollup {
	// Name index built once up front: O(n) instead of a per-fact scan when a
	// fact arrives with an id but an empty display name.
	teamNames, workerNames := buildNameIndex(facts)

	years := map[string]*timeAccum{}
	degraded := 0

	for _, f := range facts {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)

		y, ok := years[models.YearKey(day)]
		if !ok {
			y = newTimeAccum(models.GranularityYear, models.YearKey(day),
				time.Date(day.Year(), 1, 1, 0, 0, 0, 0, time.UTC))
			years[y.key] = y
		}
		m := y.child(models.GranularityMonth, models.MonthKey(day), models.MonthStart(day))
		w := m.child(models.GranularityWeek, models.ISOWeekKey(day), models.ISOWeekStart(day))
		d := w.child(models.GranularityDay, models.DayKey(day), day)

		if f.LocationID <= 0 || f.TeamID <= 0 || f.WorkerID <= 0 {
			degraded++
			if r.log != nil {
				r.log.WithFields(logrus.Fields{
					"module":      "workflow",
					"fact_id":     f.ID,
					"date":        models.DayKey(day),
					"location_id": f.LocationID,
					"team_id":     f.TeamID,
					"worker_id":   f.WorkerID,
				}).Warn("unresolved entity on labor fact; counted in totals only")
			}
		}

		for _, acc := range [...]*timeAccum{y, m, w, d} {
			acc.totals.Accumulate(f.HoursWorked, f.WageCost, f.Revenue)
			acc.addEntity(f, teamNames, workerNames)
		}
	}

	rollup := &models.LaborRollup{
		LocationID:    filter.LocationID,
		FromDate:      filter.From,
		ToDate:        filter.To,
		DegradedFacts: degraded,
	}
	for _, key := range sortedKeys(years) {
		rollup.Years = append(rollup.Years, years[key].build())
	}
	return rollup
}

// addEntity descends the entity dimension as far as the fact resolves;
// unresolved levels drop out of the breakdown but stay in the node totals.
func (t *timeAccum) addEntity(f models.LaborDailyFact, teamNames, workerNames map[int]string) {
	if f.LocationID <= 0 {
		return
	}
	loc, ok := t.locations[f.LocationID]
	if !ok {
		loc = &locationAccum{teams: map[int]*teamAccum{}}
		t.locations[f.LocationID] = loc
	}
	loc.totals.Accumulate(f.HoursWorked, f.WageCost, f.Revenue)

	if f.TeamID <= 0 {
		return
	}
	team, ok := loc.teams[f.TeamID]
	if !ok {
		team = &teamAccum{name: teamNames[f.TeamID], workers: map[int]*workerAccum{}}
		loc.teams[f.TeamID] = team
	}
	team.totals.Accumulate(f.HoursWorked, f.WageCost, f.Revenue)

	if f.WorkerID <= 0 {
		return
	}
	worker, ok := team.workers[f.WorkerID]
	if !ok {
		worker = &workerAccum{name: workerNames[f.WorkerID]}
		team.workers[f.WorkerID] = worker
	}
	worker.totals.Accumulate(f.HoursWorked, f.WageCost, f.Revenue)
}

func (t *timeAccum) build() *models.TimeNode {
	node := &models.TimeNode{
		Granularity: t.granularity,
		Key:         t.key,
		PeriodStart: t.periodStart,
		NodeTotals:  t.totals,
	}
	node.ComputeRatios()

	locIDs := make([]int, 0, len(t.locations))
	for id := range t.locations {
		locIDs = append(locIDs, id)
	}
	sort.Ints(locIDs)
	for _, id := range locIDs {
		node.Locations = append(node.Locations, t.locations[id].build(id))
	}

	for _, key := range sortedKeys(t.children) {
		node.Children = append(node.Children, t.children[key].build())
	}
	return node
}

func (l *locationAccum) build(id int) *models.LocationNode {
	node := &models.LocationNode{LocationID: id, NodeTotals: l.totals}
	node.ComputeRatios()

	teamIDs := make([]int, 0, len(l.teams))
	for tid := range l.teams {
		teamIDs = append(teamIDs, tid)
	}
	sort.Ints(teamIDs)
	for _, tid := range teamIDs {
		t := l.teams[tid]
		teamNode := &models.TeamNode{TeamID: tid, TeamName: t.name, NodeTotals: t.totals}
		teamNode.ComputeRatios()

		workerIDs := make([]int, 0, len(t.workers))
		for wid := range t.workers {
			workerIDs = append(workerIDs, wid)
		}
		sort.Ints(workerIDs)
		for _, wid := range workerIDs {
			w := t.workers[wid]
			workerNode := &models.WorkerNode{WorkerID: wid, WorkerName: w.name, NodeTotals: w.totals}
			workerNode.ComputeRatios()
			teamNode.Workers = append(teamNode.Workers, workerNode)
		}
		node.Teams = append(node.Teams, teamNode)
	}
	return node
}

func buildNameIndex(facts []models.LaborDailyFact) (teamNames, workerNames map[int]string) {
	teamNames = make(map[int]string)
	workerNames = make(map[int]string)
	for _, f := range facts {
		if f.TeamID > 0 && f.TeamName != "" && teamNames[f.TeamID] == "" {
			teamNames[f.TeamID] = f.TeamName
		}
		if f.WorkerID > 0 && f.WorkerName != "" && workerNames[f.WorkerID] == "" {
			workerNames[f.WorkerID] = f.WorkerName
		}
	}
	return teamNames, workerNames
}

func sortedKeys(m map[string]*timeAccum) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
