package workflow

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

var allocationGroups = []models.BucketGroup{
	models.GroupRevenue,
	models.GroupCostOfSales,
	models.GroupLabor,
	models.GroupOther,
}

// Allocator distributes unclassifiable amounts across the known bucket
// totals of the same group, proportionally to each bucket's share. Groups
// never mix: a revenue-side unknown can only land in revenue buckets.
type Allocator struct {
	table models.TaxonomyTable
	log   *logrus.Logger
}

func NewAllocator(table models.TaxonomyTable, log *logrus.Logger) *Allocator {
	return &Allocator{table: table, log: log}
}

// Allocate returns the final per-bucket totals and the total amount that was
// distributed. The distributed amount per group always sums exactly to that
// group's unknown amount: the last receiving bucket takes the rounding
// remainder.
func (a *Allocator) Allocate(totals BucketTotals) (map[string]decimal.Decimal, decimal.Decimal) {
	out := make(map[string]decimal.Decimal, len(totals.Known))
	for bucket, amount := range totals.Known {
		out[bucket] = amount
	}

	allocated := decimal.Zero
	for _, group := range allocationGroups {
		unknown := totals.Unknown[group]
		if unknown.IsZero() {
			continue
		}
		a.allocateGroup(out, group, unknown)
		allocated = allocated.Add(unknown)
	}
	return out, allocated
}

func (a *Allocator) allocateGroup(out map[string]decimal.Decimal, group models.BucketGroup, unknown decimal.Decimal) {
	buckets := a.table.BucketsInGroup(group)

	knownSum := decimal.Zero
	var receiving []string
	for _, b := range buckets {
		if v, ok := out[b]; ok && !v.IsZero() {
			knownSum = knownSum.Add(v)
			receiving = append(receiving, b)
		}
	}

	if !knownSum.IsZero() {
		remaining := unknown
		for i, b := range receiving {
			var share decimal.Decimal
			if i == len(receiving)-1 {
				share = remaining
			} else {
				share = unknown.Mul(out[b]).DivRound(knownSum, 6)
			}
			out[b] = out[b].Add(share)
			remaining = remaining.Sub(share)
		}
		return
	}

	// No known totals to be proportional to. Two-bucket groups (revenue,
	// cost of sales, labor) split evenly; for the wide other-costs group the
	// amount is parked in the catch-all bucket where it stays visible, since
	// no even split is defined for that family.
	if len(buckets) == 2 {
		half := unknown.DivRound(decimal.NewFromInt(2), 6)
		out[buckets[0]] = out[buckets[0]].Add(half)
		out[buckets[1]] = out[buckets[1]].Add(unknown.Sub(half))
		return
	}

	target := models.BucketOtherCosts
	if !containsBucket(buckets, target) && len(buckets) > 0 {
		target = buckets[0]
	}
	if a.log != nil {
		a.log.WithFields(logrus.Fields{
			"module": "workflow",
			"group":  string(group),
			"amount": unknown.String(),
			"bucket": target,
		}).Warn("no known totals in group; unallocated amount parked in catch-all bucket")
	}
	out[target] = out[target].Add(unknown)
}

func containsBucket(buckets []string, name string) bool {
	for _, b := range buckets {
		if b == name {
			return true
		}
	}
	return false
}
