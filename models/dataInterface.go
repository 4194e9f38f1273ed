package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bitbucket.org/horecafocus/backoffice_backend/utils"
)

// Persister is the durable-store boundary of the aggregation engine: raw
// facts in, finished aggregates out. Absent rows are reported through the
// found flag, not an error; errors are reserved for genuine I/O failures.
type Persister interface {
	GLEntries(ctx context.Context, locationID int, p Period) ([]GLEntry, error)
	LaborFacts(ctx context.Context, f FactFilter) ([]LaborDailyFact, error)

	// ReportedResult returns the externally reported result for a period.
	// found is false when the bookkeeping export has not delivered one yet.
	ReportedResult(ctx context.Context, locationID int, p Period) (result decimal.Decimal, found bool, err error)

	// Upserts replace any prior aggregate for the same natural key.
	UpsertPnLAggregate(ctx context.Context, agg *PnLAggregate) error
	UpsertLaborRollup(ctx context.Context, rollup *LaborRollup, generatedBy string) error
}

// GormPersister answers the Persister contract against MySQL.
type GormPersister struct {
	db *gorm.DB
}

func NewGormPersister(db *gorm.DB) *GormPersister {
	return &GormPersister{db: db}
}

func (g *GormPersister) GLEntries(ctx context.Context, locationID int, p Period) ([]GLEntry, error) {
	var entries []GLEntry
	// COALESCE guards against NULL amounts from older exports; a malformed
	// line must never abort the run.
	err := g.db.WithContext(ctx).
		Select("id, location_id, year, month, category, subcategory, gl_account, COALESCE(amount, 0) AS amount").
		Where("location_id = ? AND year = ? AND month = ?", locationID, p.Year, p.Month).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (g *GormPersister) LaborFacts(ctx context.Context, f FactFilter) ([]LaborDailyFact, error) {
	q := g.db.WithContext(ctx).
		Select(`id, date, location_id, team_id, team_name, worker_id, worker_name,
			COALESCE(hours_worked, 0) AS hours_worked,
			COALESCE(wage_cost, 0) AS wage_cost,
			COALESCE(revenue, 0) AS revenue`).
		Where("date >= ? AND date <= ?", f.From, f.To)
	if f.LocationID > 0 {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.TeamID > 0 {
		q = q.Where("team_id = ?", f.TeamID)
	}
	if f.WorkerID > 0 {
		q = q.Where("worker_id = ?", f.WorkerID)
	}

	var facts []LaborDailyFact
	if err := q.Order("date, id").Find(&facts).Error; err != nil {
		return nil, err
	}
	return facts, nil
}

func (g *GormPersister) ReportedResult(ctx context.Context, locationID int, p Period) (decimal.Decimal, bool, error) {
	var row ReportedResult
	err := g.db.WithContext(ctx).
		Where("location_id = ? AND year = ? AND month = ?", locationID, p.Year, p.Month).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return row.Resultaat, true, nil
}

func (g *GormPersister) UpsertPnLAggregate(ctx context.Context, agg *PnLAggregate) error {
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(agg).Error
	if isDuplicateEntry(err) {
		// Two runs raced on the same key without a lock; the row exists now,
		// so a plain update settles it.
		return g.db.WithContext(ctx).
			Model(&PnLAggregate{}).
			Where("location_id = ? AND year = ? AND month = ?", agg.LocationID, agg.Year, agg.Month).
			Updates(agg).Error
	}
	return err
}

func (g *GormPersister) UpsertLaborRollup(ctx context.Context, rollup *LaborRollup, generatedBy string) error {
	payload, err := json.Marshal(rollup)
	if err != nil {
		return err
	}
	doc := &LaborRollupDocument{
		LocationID:  rollup.LocationID,
		FromDate:    rollup.FromDate,
		ToDate:      rollup.ToDate,
		Payload:     string(payload),
		GeneratedBy: generatedBy,
	}
	err = g.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(doc).Error
	if isDuplicateEntry(err) {
		return g.db.WithContext(ctx).
			Model(&LaborRollupDocument{}).
			Where("location_id = ? AND from_date = ? AND to_date = ?", doc.LocationID, doc.FromDate, doc.ToDate).
			Updates(doc).Error
	}
	return err
}

// PnLAggregatesBetween reads finished aggregates for export tooling. Not part
// of the engine's Persister contract.
func (g *GormPersister) PnLAggregatesBetween(ctx context.Context, locationID int, from, to Period) ([]*PnLAggregate, error) {
	var aggs []*PnLAggregate
	err := g.db.WithContext(ctx).
		Where("location_id = ? AND (year * 100 + month) BETWEEN ? AND ?",
			locationID, from.Year*100+from.Month, to.Year*100+to.Month).
		Order("year, month").
		Find(&aggs).Error
	if err != nil {
		return nil, err
	}
	return aggs, nil
}

// LaborRollupDocumentByKey returns the stored rollup for an exact range.
// When no run has produced one yet it reports utils.ErrorRecordNotFound, which
// callers can test with errors.Is.
func (g *GormPersister) LaborRollupDocumentByKey(ctx context.Context, locationID int, from, to time.Time) (*LaborRollupDocument, error) {
	var doc LaborRollupDocument
	err := g.db.WithContext(ctx).
		Where("location_id = ? AND from_date = ? AND to_date = ?", locationID, from, to).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ER_DUP_ENTRY
func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
