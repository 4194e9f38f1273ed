package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValidationResult is the outcome of the balance check, embedded in the
// aggregate it validated. A failing check is a reported fact, never an error:
// the aggregate is persisted regardless so the failure is visible downstream.
type ValidationResult struct {
	// Performed is false when no externally reported result existed for the
	// period, so no comparison could be made.
	Performed          bool            `gorm:"default:false" json:"performed"`
	IsValid            bool            `gorm:"default:false" json:"is_valid"`
	ErrorMarginPercent decimal.Decimal `gorm:"type:decimal(12,6);default:0" json:"error_margin_percent"`
	CalculatedResult   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"calculated_result"`
	ActualResult       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual_result"`
}

// PnLAggregate is the canonical profit-and-loss document for one location and
// month. Grain: (location_id, year, month); a new run for the same key
// replaces the previous row.
//
// Cost fields hold positive magnitudes (the builder takes absolute values at
// combination time). OpbrengstVorderingen keeps its sign; only its positive
// part counts toward the resultaat.
//
// NOTE: derived data; can always be rebuilt from gl_entries.
type PnLAggregate struct {
	LocationID int `gorm:"primaryKey" json:"location_id"`
	Year       int `gorm:"primaryKey" json:"year"`
	Month      int `gorm:"primaryKey" json:"month"`

	RevenueFood     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"revenue_food"`
	RevenueBeverage decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"revenue_beverage"`
	RevenueTotal    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"revenue_total"`

	CostOfSalesFood     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_of_sales_food"`
	CostOfSalesBeverage decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_of_sales_beverage"`
	CostOfSalesTotal    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_of_sales_total"`

	LaborContract decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"labor_contract"`
	LaborFlex     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"labor_flex"`
	LaborTotal    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"labor_total"`

	HousingCosts    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"housing_costs"`
	OperatingCosts  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"operating_costs"`
	SalesCosts      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_costs"`
	AutoCosts       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"auto_costs"`
	OfficeCosts     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"office_costs"`
	InsuranceCosts  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"insurance_costs"`
	AccountingCosts decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"accounting_costs"`
	AdminCosts      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"admin_costs"`
	OtherCosts      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"other_costs"`
	Depreciation    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"depreciation"`
	FinancialCosts  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"financial_costs"`
	OtherCostsTotal decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"other_costs_total"`

	OpbrengstVorderingen decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opbrengst_vorderingen"`

	Resultaat decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"resultaat"`

	Validation ValidationResult `gorm:"embedded;embeddedPrefix:validation_" json:"validation"`

	CreatedBy string    `gorm:"size:64" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ComputeResultaat applies the fixed result formula:
// revenue − cost of sales − labor − other costs + positive part of
// opbrengst vorderingen.
func (p PnLAggregate) ComputeResultaat() decimal.Decimal {
	return p.RevenueTotal.
		Sub(p.CostOfSalesTotal).
		Sub(p.LaborTotal).
		Sub(p.OtherCostsTotal).
		Add(decimal.Max(p.OpbrengstVorderingen, decimal.Zero))
}
