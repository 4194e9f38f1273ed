package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Granularity string

const (
	GranularityYear  Granularity = "year"
	GranularityMonth Granularity = "month"
	GranularityWeek  Granularity = "week"
	GranularityDay   Granularity = "day"
)

// NodeTotals carries the summed facts of one rollup node plus the ratios
// derived from them. Ratios are always recomputed from the summed
// numerator/denominator pair, never summed or averaged across children.
type NodeTotals struct {
	TotalHoursWorked decimal.Decimal `json:"total_hours_worked"`
	TotalWageCost    decimal.Decimal `json:"total_wage_cost"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`

	RevenuePerHour      decimal.Decimal `json:"revenue_per_hour"`
	LaborCostPercentage decimal.Decimal `json:"labor_cost_percentage"`
}

func (t *NodeTotals) Accumulate(hours, wageCost, revenue decimal.Decimal) {
	t.TotalHoursWorked = t.TotalHoursWorked.Add(hours)
	t.TotalWageCost = t.TotalWageCost.Add(wageCost)
	t.TotalRevenue = t.TotalRevenue.Add(revenue)
}

// ComputeRatios derives revenue/hour and labor cost % once the sums are
// final. Zero denominators yield zero ratios.
func (t *NodeTotals) ComputeRatios() {
	if t.TotalHoursWorked.IsZero() {
		t.RevenuePerHour = decimal.Zero
	} else {
		t.RevenuePerHour = t.TotalRevenue.DivRound(t.TotalHoursWorked, 6)
	}
	if t.TotalRevenue.IsZero() {
		t.LaborCostPercentage = decimal.Zero
	} else {
		t.LaborCostPercentage = t.TotalWageCost.DivRound(t.TotalRevenue, 6).Mul(decimal.NewFromInt(100))
	}
}

type WorkerNode struct {
	WorkerID   int    `json:"worker_id"`
	WorkerName string `json:"worker_name"`
	NodeTotals
}

type TeamNode struct {
	TeamID   int    `json:"team_id"`
	TeamName string `json:"team_name"`
	NodeTotals
	Workers []*WorkerNode `json:"workers"`
}

type LocationNode struct {
	LocationID int `json:"location_id"`
	NodeTotals
	Teams []*TeamNode `json:"teams"`
}

// TimeNode is one node of the rollup tree. Children hold the next finer time
// granularity (year → months → weeks → days); Locations is the entity
// breakdown at this node's own granularity.
//
// A week that spans a month boundary appears under both months, each carrying
// only its own month's share, so parent sums stay exact.
type TimeNode struct {
	Granularity Granularity `json:"granularity"`
	Key         string      `json:"key"`
	PeriodStart time.Time   `json:"period_start"`
	NodeTotals
	Locations []*LocationNode `json:"locations"`
	Children  []*TimeNode     `json:"children,omitempty"`
}

// LaborRollup is the full aggregate tree for one requested range. Immutable
// once built.
type LaborRollup struct {
	LocationID int       `json:"location_id"`
	FromDate   time.Time `json:"from_date"`
	ToDate     time.Time `json:"to_date"`

	Years []*TimeNode `json:"years"`

	// DegradedFacts counts facts whose team or worker could not be resolved;
	// their amounts are present in the totals but absent from the entity
	// breakdown.
	DegradedFacts int `json:"degraded_facts"`
}

// LaborRollupExposure is the freshness-filtered view of a rollup: one flat
// section per time granularity, each node carrying its entity breakdown.
// The persisted document keeps every level; this view is what gets served.
type LaborRollupExposure struct {
	AsOf time.Time `json:"as_of"`

	HoursByYear  []*TimeNode `json:"hours_by_year"`
	HoursByMonth []*TimeNode `json:"hours_by_month"`
	HoursByWeek  []*TimeNode `json:"hours_by_week"`
	HoursByDay   []*TimeNode `json:"hours_by_day"`
}

// LaborRollupDocument is the persisted form of a LaborRollup, upserted by its
// natural key. The tree itself is stored as a JSON payload; queries always
// read the whole document.
type LaborRollupDocument struct {
	LocationID int       `gorm:"primaryKey" json:"location_id"`
	FromDate   time.Time `gorm:"primaryKey" json:"from_date"`
	ToDate     time.Time `gorm:"primaryKey" json:"to_date"`

	Payload string `gorm:"type:json" json:"payload"`

	GeneratedBy string    `gorm:"size:64" json:"generated_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
