package workflow

import (
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAllocator_ProportionalSplit(t *testing.T) {
	a := NewAllocator(models.DefaultTaxonomy(), testLogger())

	totals := BucketTotals{
		Known: map[string]decimal.Decimal{
			models.BucketRevenueFood:     decimal.NewFromInt(100),
			models.BucketRevenueBeverage: decimal.NewFromInt(50),
		},
		Unknown: map[models.BucketGroup]decimal.Decimal{
			models.GroupRevenue: decimal.NewFromInt(30),
		},
	}

	out, allocated := a.Allocate(totals)
	if !allocated.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("allocated = %s, want 30", allocated)
	}
	if got := out[models.BucketRevenueFood]; !got.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("revenue_food = %s, want 120", got)
	}
	if got := out[models.BucketRevenueBeverage]; !got.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("revenue_beverage = %s, want 60", got)
	}
}

func TestAllocator_RemainderConservesExactly(t *testing.T) {
	a := NewAllocator(models.DefaultTaxonomy(), testLogger())

	// Three equal known buckets and an unknown that does not divide evenly:
	// 10/3 rounds per bucket, but the last receiving bucket takes the rounding
	// remainder so the group still conserves to the cent and beyond.
	known := map[string]decimal.Decimal{
		models.BucketHousingCosts:   decimal.NewFromInt(-100),
		models.BucketOperatingCosts: decimal.NewFromInt(-100),
		models.BucketSalesCosts:     decimal.NewFromInt(-100),
	}
	totals := BucketTotals{
		Known: known,
		Unknown: map[models.BucketGroup]decimal.Decimal{
			models.GroupOther: decimal.NewFromInt(-10),
		},
	}

	out, _ := a.Allocate(totals)

	sum := decimal.Zero
	for _, b := range []string{models.BucketHousingCosts, models.BucketOperatingCosts, models.BucketSalesCosts} {
		sum = sum.Add(out[b])
	}
	if !sum.Equal(decimal.NewFromInt(-310)) {
		t.Fatalf("group sum = %s, want -310 exactly", sum)
	}
}

func TestAllocator_EvenSplitWhenNothingKnown(t *testing.T) {
	a := NewAllocator(models.DefaultTaxonomy(), testLogger())

	totals := BucketTotals{
		Known: map[string]decimal.Decimal{},
		Unknown: map[models.BucketGroup]decimal.Decimal{
			models.GroupLabor: decimal.NewFromInt(-31),
		},
	}

	out, _ := a.Allocate(totals)
	if got := out[models.BucketLaborContract]; !got.Equal(dec("-15.5")) {
		t.Fatalf("labor_contract = %s, want -15.5", got)
	}
	if got := out[models.BucketLaborFlex]; !got.Equal(dec("-15.5")) {
		t.Fatalf("labor_flex = %s, want -15.5", got)
	}
}

func TestAllocator_WideGroupParksInCatchAll(t *testing.T) {
	a := NewAllocator(models.DefaultTaxonomy(), testLogger())

	totals := BucketTotals{
		Known: map[string]decimal.Decimal{},
		Unknown: map[models.BucketGroup]decimal.Decimal{
			models.GroupOther: decimal.NewFromInt(-40),
		},
	}

	out, allocated := a.Allocate(totals)
	if !allocated.Equal(decimal.NewFromInt(-40)) {
		t.Fatalf("allocated = %s, want -40", allocated)
	}
	if got := out[models.BucketOtherCosts]; !got.Equal(decimal.NewFromInt(-40)) {
		t.Fatalf("other_costs = %s, want -40", got)
	}
	for bucket, v := range out {
		if bucket != models.BucketOtherCosts && !v.IsZero() {
			t.Fatalf("bucket %s received %s, want nothing", bucket, v)
		}
	}
}

func TestAllocator_GroupsNeverMix(t *testing.T) {
	a := NewAllocator(models.DefaultTaxonomy(), testLogger())

	totals := BucketTotals{
		Known: map[string]decimal.Decimal{
			models.BucketRevenueFood:     decimal.NewFromInt(100),
			models.BucketCostOfSalesFood: decimal.NewFromInt(-40),
		},
		Unknown: map[models.BucketGroup]decimal.Decimal{
			models.GroupRevenue: decimal.NewFromInt(10),
		},
	}

	out, _ := a.Allocate(totals)
	if got := out[models.BucketRevenueFood]; !got.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("revenue_food = %s, want 110", got)
	}
	if got := out[models.BucketCostOfSalesFood]; !got.Equal(decimal.NewFromInt(-40)) {
		t.Fatalf("cost_of_sales_food = %s, want untouched -40", got)
	}
}

func TestAllocator_NoUnknownsIsIdentity(t *testing.T) {
	a := NewAllocator(models.DefaultTaxonomy(), testLogger())

	totals := BucketTotals{
		Known: map[string]decimal.Decimal{
			models.BucketRevenueFood: decimal.NewFromInt(100),
		},
		Unknown: map[models.BucketGroup]decimal.Decimal{},
	}

	out, allocated := a.Allocate(totals)
	if !allocated.IsZero() {
		t.Fatalf("allocated = %s, want 0", allocated)
	}
	if got := out[models.BucketRevenueFood]; !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("revenue_food = %s, want 100", got)
	}
}
