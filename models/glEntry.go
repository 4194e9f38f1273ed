package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GLEntry is one flat general-ledger line as delivered by the bookkeeping
// export. Amounts keep their source sign: revenue positive, cost lines
// negative. Sign handling is deferred to the P&L builder so deduplication and
// allocation stay sign-correct.
//
// The ingestion layer is responsible for mapping legacy field-name synonyms
// onto this one canonical shape; the engine never sees anything else.
type GLEntry struct {
	ID         int `gorm:"primaryKey" json:"id"`
	LocationID int `gorm:"index:idx_gl_loc_period,priority:1;not null" json:"location_id"`
	Year       int `gorm:"index:idx_gl_loc_period,priority:2;not null" json:"year"`
	Month      int `gorm:"index:idx_gl_loc_period,priority:3;not null" json:"month"`

	Category    string `gorm:"size:191" json:"category"`
	Subcategory string `gorm:"size:191" json:"subcategory"`
	GLAccount   string `gorm:"size:32" json:"gl_account"`

	Amount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DedupKey identifies a logical source line. Amount is deliberately excluded:
// duplicate ingestion can perturb amounts by rounding while still describing
// the same line item.
func (e GLEntry) DedupKey() string {
	return e.Category + "|" + e.Subcategory + "|" + e.GLAccount
}

// ReportedResult is the externally reported net result for a period, used by
// the balance check. Rows are fed by the bookkeeping export alongside the GL
// lines.
type ReportedResult struct {
	LocationID int `gorm:"primaryKey" json:"location_id"`
	Year       int `gorm:"primaryKey" json:"year"`
	Month      int `gorm:"primaryKey" json:"month"`

	Resultaat decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"resultaat"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
