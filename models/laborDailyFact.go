package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LaborDailyFact is one day of work by one worker at one location, joined
// with that day's attributed revenue. Fed by the time-tracking and POS
// integrations (outside this module).
//
// TeamID/WorkerID of 0 mean the source could not resolve the entity; such
// facts still count toward period totals but are excluded from the entity
// breakdown (degraded contribution).
type LaborDailyFact struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	Date       time.Time `gorm:"index:idx_labor_date_loc,priority:1;not null" json:"date"`
	LocationID int       `gorm:"index:idx_labor_date_loc,priority:2;not null" json:"location_id"`

	TeamID   int    `gorm:"index" json:"team_id"`
	TeamName string `gorm:"size:191" json:"team_name"`

	WorkerID   int    `gorm:"index" json:"worker_id"`
	WorkerName string `gorm:"size:191" json:"worker_name"`

	HoursWorked decimal.Decimal `gorm:"type:decimal(12,4);default:0" json:"hours_worked"`
	WageCost    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"wage_cost"`
	Revenue     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"revenue"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FactFilter narrows which labor facts an aggregation run reads.
// Zero values mean "no filter" for the dimension fields.
type FactFilter struct {
	LocationID int
	TeamID     int
	WorkerID   int
	From       time.Time
	To         time.Time
}
