package reports

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/horecafocus/backoffice_backend/models"
	"bitbucket.org/horecafocus/backoffice_backend/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var pnlColumns = []string{
	"Period", "Location",
	"Revenue Food", "Revenue Beverage", "Revenue Total",
	"Cost Of Sales Food", "Cost Of Sales Beverage", "Cost Of Sales Total",
	"Labor Contract", "Labor Flex", "Labor Total",
	"Housing", "Operating", "Sales", "Auto", "Office", "Insurance",
	"Accounting", "Admin", "Other", "Depreciation", "Financial",
	"Other Costs Total",
	"Opbrengst Vorderingen", "Resultaat",
	"Balance Checked", "Balance Valid", "Error Margin %",
}

// BuildPnLWorkbook renders finished aggregates into a workbook for
// accountant review, one row per location-month.
func BuildPnLWorkbook(aggs []*models.PnLAggregate) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "ProfitAndLoss"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for col, header := range pnlColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	// Amounts go in as numbers, not formatted text, so the sheet stays
	// summable for the accountant.
	num := func(d decimal.Decimal) float64 {
		return d.InexactFloat64()
	}
	for i, agg := range aggs {
		values := []interface{}{
			fmt.Sprintf("%04d-%02d", agg.Year, agg.Month),
			agg.LocationID,
			num(agg.RevenueFood), num(agg.RevenueBeverage), num(agg.RevenueTotal),
			num(agg.CostOfSalesFood), num(agg.CostOfSalesBeverage), num(agg.CostOfSalesTotal),
			num(agg.LaborContract), num(agg.LaborFlex), num(agg.LaborTotal),
			num(agg.HousingCosts), num(agg.OperatingCosts), num(agg.SalesCosts), num(agg.AutoCosts),
			num(agg.OfficeCosts), num(agg.InsuranceCosts), num(agg.AccountingCosts),
			num(agg.AdminCosts), num(agg.OtherCosts), num(agg.Depreciation), num(agg.FinancialCosts),
			num(agg.OtherCostsTotal),
			num(agg.OpbrengstVorderingen), num(agg.Resultaat),
			agg.Validation.Performed, agg.Validation.IsValid,
			num(agg.Validation.ErrorMarginPercent),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

func WritePnLWorkbook(path string, aggs []*models.PnLAggregate) error {
	f, err := BuildPnLWorkbook(aggs)
	if err != nil {
		return err
	}
	return f.SaveAs(path)
}

// UploadPnLWorkbook writes the workbook straight into the report bucket.
func UploadPnLWorkbook(ctx context.Context, objectName string, aggs []*models.PnLAggregate) error {
	f, err := BuildPnLWorkbook(aggs)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return err
	}
	return utils.SaveReportToGCS(ctx, objectName, xlsxContentType, &buf)
}
