package workflow

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

// BucketTotals is the deduplicated, summed view of a classified period.
// Known holds signed sums per bucket; Unknown holds the signed sum of
// unclassifiable lines per allocation group.
type BucketTotals struct {
	Known   map[string]decimal.Decimal
	Unknown map[models.BucketGroup]decimal.Decimal

	DuplicatesCollapsed int
}

// Deduplicator collapses exact-duplicate source lines. Duplicate ingestion
// can deliver the same logical line twice with rounding-perturbed amounts, so
// the dedup key excludes the amount and the larger magnitude is retained.
type Deduplicator struct{}

// Collapse keeps one fact per dedup key and sums the survivors per bucket.
// The result is independent of input order: for each key the fact with the
// larger absolute amount wins, with the greater signed amount as tie-break.
func (Deduplicator) Collapse(cl Classification) BucketTotals {
	retained := make(map[string]ClassifiedFact, len(cl.Matched)+len(cl.Unknown))
	collapsed := 0

	keep := func(cf ClassifiedFact) {
		prev, ok := retained[cf.DedupKey]
		if !ok {
			retained[cf.DedupKey] = cf
			return
		}
		collapsed++
		if betterDuplicate(cf.Entry.Amount, prev.Entry.Amount) {
			retained[cf.DedupKey] = cf
		}
	}
	for _, cf := range cl.Matched {
		keep(cf)
	}
	for _, cf := range cl.Unknown {
		keep(cf)
	}

	totals := BucketTotals{
		Known:               make(map[string]decimal.Decimal),
		Unknown:             make(map[models.BucketGroup]decimal.Decimal),
		DuplicatesCollapsed: collapsed,
	}
	for _, cf := range retained {
		if cf.Bucket != "" {
			totals.Known[cf.Bucket] = totals.Known[cf.Bucket].Add(cf.Entry.Amount)
		} else {
			totals.Unknown[cf.Group] = totals.Unknown[cf.Group].Add(cf.Entry.Amount)
		}
	}
	return totals
}

func betterDuplicate(candidate, current decimal.Decimal) bool {
	ca, cu := candidate.Abs(), current.Abs()
	if !ca.Equal(cu) {
		return ca.GreaterThan(cu)
	}
	return candidate.GreaterThan(current)
}
