package workflow

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

var hundred = decimal.NewFromInt(100)

// BalanceValidator recomputes a period's result from the aggregate's own
// totals and compares it with the externally reported result. A failing check
// is a reported outcome carried on the aggregate, never an error.
type BalanceValidator struct {
	TolerancePercent decimal.Decimal
}

func (v BalanceValidator) Validate(agg *models.PnLAggregate, actual decimal.Decimal) models.ValidationResult {
	calculated := agg.ComputeResultaat()

	var margin decimal.Decimal
	if actual.IsZero() {
		if calculated.IsZero() {
			margin = decimal.Zero
		} else {
			margin = hundred
		}
	} else {
		margin = calculated.Sub(actual).Abs().DivRound(actual.Abs(), 6).Mul(hundred)
	}

	return models.ValidationResult{
		Performed:          true,
		IsValid:            margin.LessThan(v.TolerancePercent),
		ErrorMarginPercent: margin,
		CalculatedResult:   calculated,
		ActualResult:       actual,
	}
}
