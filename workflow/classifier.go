package workflow

import (
	"strings"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

// ClassifiedFact is one GL line after taxonomy matching. Bucket is empty for
// unknown lines; Group is always set (for unknowns it is the allocation group
// derived from the line's category).
type ClassifiedFact struct {
	Entry    models.GLEntry
	Bucket   string
	Group    models.BucketGroup
	DedupKey string
}

type Classification struct {
	Matched []ClassifiedFact
	Unknown []ClassifiedFact
}

// Classifier assigns each GL line to at most one canonical bucket.
type Classifier struct {
	table models.TaxonomyTable
}

func NewClassifier(table models.TaxonomyTable) *Classifier {
	return &Classifier{table: table}
}

func (c *Classifier) Classify(entries []models.GLEntry) Classification {
	var out Classification
	for _, e := range entries {
		cf := ClassifiedFact{Entry: e, DedupKey: e.DedupKey()}
		if rule, ok := c.match(e); ok {
			cf.Bucket = rule.Bucket
			cf.Group = rule.Group
			out.Matched = append(out.Matched, cf)
			continue
		}
		cf.Group = c.table.GroupForCategory(e.Category)
		out.Unknown = append(out.Unknown, cf)
	}
	return out
}

// match walks the rules in table order; the first matching bucket wins when
// pattern lists overlap.
func (c *Classifier) match(e models.GLEntry) (models.TaxonomyRule, bool) {
	for _, rule := range c.table.Rules {
		if ruleMatches(rule, e) {
			return rule, true
		}
	}
	return models.TaxonomyRule{}, false
}

func ruleMatches(rule models.TaxonomyRule, e models.GLEntry) bool {
	for _, pattern := range rule.Patterns {
		// Subcategory-only buckets share their parent category with sibling
		// buckets; a category-level match here would double count the line.
		if !rule.SubcategoryOnly && categoryEquals(e.Category, pattern) {
			return true
		}
		if models.SubstringMatch(e.Subcategory, pattern) {
			return true
		}
	}
	return false
}

func categoryEquals(category, pattern string) bool {
	category = strings.TrimSpace(category)
	pattern = strings.TrimSpace(pattern)
	if category == "" || pattern == "" {
		return false
	}
	return strings.EqualFold(category, pattern)
}
