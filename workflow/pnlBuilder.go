package workflow

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

// PnLBuilder combines final bucket totals into the canonical P&L document.
//
// Cost-side source amounts are signed (negative); the absolute value is taken
// here and not earlier, so deduplication and allocation operate on the
// original signs.
type PnLBuilder struct{}

func (PnLBuilder) Build(locationID int, p models.Period, totals map[string]decimal.Decimal) *models.PnLAggregate {
	get := func(bucket string) decimal.Decimal {
		return totals[bucket]
	}
	cost := func(bucket string) decimal.Decimal {
		return totals[bucket].Abs()
	}

	agg := &models.PnLAggregate{
		LocationID: locationID,
		Year:       p.Year,
		Month:      p.Month,

		RevenueFood:     get(models.BucketRevenueFood),
		RevenueBeverage: get(models.BucketRevenueBeverage),

		CostOfSalesFood:     cost(models.BucketCostOfSalesFood),
		CostOfSalesBeverage: cost(models.BucketCostOfSalesBeverage),

		LaborContract: cost(models.BucketLaborContract),
		LaborFlex:     cost(models.BucketLaborFlex),

		HousingCosts:    cost(models.BucketHousingCosts),
		OperatingCosts:  cost(models.BucketOperatingCosts),
		SalesCosts:      cost(models.BucketSalesCosts),
		AutoCosts:       cost(models.BucketAutoCosts),
		OfficeCosts:     cost(models.BucketOfficeCosts),
		InsuranceCosts:  cost(models.BucketInsuranceCosts),
		AccountingCosts: cost(models.BucketAccountingCosts),
		AdminCosts:      cost(models.BucketAdminCosts),
		OtherCosts:      cost(models.BucketOtherCosts),
		Depreciation:    cost(models.BucketDepreciation),
		FinancialCosts:  cost(models.BucketFinancialCosts),

		OpbrengstVorderingen: get(models.BucketOpbrengstVorderingen),
	}

	agg.RevenueTotal = agg.RevenueFood.Add(agg.RevenueBeverage)
	agg.CostOfSalesTotal = agg.CostOfSalesFood.Add(agg.CostOfSalesBeverage)
	agg.LaborTotal = agg.LaborContract.Add(agg.LaborFlex)
	agg.OtherCostsTotal = agg.HousingCosts.
		Add(agg.OperatingCosts).
		Add(agg.SalesCosts).
		Add(agg.AutoCosts).
		Add(agg.OfficeCosts).
		Add(agg.InsuranceCosts).
		Add(agg.AccountingCosts).
		Add(agg.AdminCosts).
		Add(agg.OtherCosts).
		Add(agg.Depreciation).
		Add(agg.FinancialCosts)

	agg.Resultaat = agg.ComputeResultaat()
	return agg
}
