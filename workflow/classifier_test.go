package workflow

import (
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/horecafocus/backoffice_backend/models"
)

func entry(category, subcategory, glAccount string, amount int64) models.GLEntry {
	return models.GLEntry{
		LocationID:  1,
		Year:        2025,
		Month:       3,
		Category:    category,
		Subcategory: subcategory,
		GLAccount:   glAccount,
		Amount:      decimal.NewFromInt(amount),
	}
}

func TestClassifier_SubcategorySubstringMatch(t *testing.T) {
	c := NewClassifier(models.DefaultTaxonomy())

	cases := []struct {
		name       string
		fact       models.GLEntry
		wantBucket string
	}{
		{"food revenue", entry("Netto-omzet", "Omzet snacks (btw laag)", "8001", 100), models.BucketRevenueFood},
		{"beverage revenue", entry("Netto-omzet", "Omzet wijnen (btw hoog)", "8002", 50), models.BucketRevenueBeverage},
		{"case insensitive", entry("NETTO-OMZET", "OMZET BIEREN (BTW HOOG)", "8003", 20), models.BucketRevenueBeverage},
		{"category exact match", entry("Lonen en salarissen", "", "4001", -900), models.BucketLaborContract},
		{"shared parent disambiguated by subcategory", entry("Overige bedrijfskosten", "Verzekeringen bedrijf", "4410", -120), models.BucketInsuranceCosts},
		{"pattern contained in subcategory", entry("Overige bedrijfskosten", "Kosten accountant Q1", "4420", -80), models.BucketAccountingCosts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cl := c.Classify([]models.GLEntry{tc.fact})
			if len(cl.Matched) != 1 {
				t.Fatalf("expected a match, got matched=%d unknown=%d", len(cl.Matched), len(cl.Unknown))
			}
			if got := cl.Matched[0].Bucket; got != tc.wantBucket {
				t.Fatalf("bucket = %s, want %s", got, tc.wantBucket)
			}
		})
	}
}

func TestClassifier_EmptySubcategoryNeverMatchesByContainment(t *testing.T) {
	c := NewClassifier(models.DefaultTaxonomy())

	// Revenue buckets are subcategory-only; with an empty subcategory the
	// line must fall through to the unknown set even though its category is
	// the shared revenue parent.
	cl := c.Classify([]models.GLEntry{entry("Netto-omzet", "", "8000", 30)})
	if len(cl.Matched) != 0 {
		t.Fatalf("expected no match, got bucket %s", cl.Matched[0].Bucket)
	}
	if len(cl.Unknown) != 1 {
		t.Fatalf("expected 1 unknown, got %d", len(cl.Unknown))
	}
	if cl.Unknown[0].Group != models.GroupRevenue {
		t.Fatalf("unknown group = %s, want %s", cl.Unknown[0].Group, models.GroupRevenue)
	}
}

func TestClassifier_SubcategoryOnlyIgnoresCategoryPatterns(t *testing.T) {
	table := models.TaxonomyTable{
		Rules: []models.TaxonomyRule{
			{Bucket: "a", Group: models.GroupOther, SubcategoryOnly: true, Patterns: []string{"Shared parent"}},
			{Bucket: "b", Group: models.GroupOther, SubcategoryOnly: true, Patterns: []string{"Shared parent"}},
		},
		GroupCategories: map[models.BucketGroup][]string{},
	}
	c := NewClassifier(table)

	cl := c.Classify([]models.GLEntry{entry("Shared parent", "something else entirely", "1", 10)})
	if len(cl.Matched) != 0 {
		t.Fatalf("category-level match on a subcategory-only bucket: %s", cl.Matched[0].Bucket)
	}
}

func TestClassifier_FirstRuleWinsOnOverlap(t *testing.T) {
	table := models.TaxonomyTable{
		Rules: []models.TaxonomyRule{
			{Bucket: "first", Group: models.GroupOther, SubcategoryOnly: true, Patterns: []string{"onderhoud"}},
			{Bucket: "second", Group: models.GroupOther, SubcategoryOnly: true, Patterns: []string{"onderhoud pand"}},
		},
		GroupCategories: map[models.BucketGroup][]string{},
	}
	c := NewClassifier(table)

	cl := c.Classify([]models.GLEntry{entry("Overige bedrijfskosten", "Onderhoud pand", "1", -10)})
	if len(cl.Matched) != 1 || cl.Matched[0].Bucket != "first" {
		t.Fatalf("expected first rule to win, got %+v", cl)
	}
}

func TestClassifier_UnknownGroupFromCategory(t *testing.T) {
	c := NewClassifier(models.DefaultTaxonomy())

	cases := []struct {
		category string
		want     models.BucketGroup
	}{
		{"Netto-omzet", models.GroupRevenue},
		{"Inkoopwaarde van de omzet", models.GroupCostOfSales},
		{"Personeelskosten", models.GroupLabor},
		{"Iets totaal onbekends", models.GroupOther},
		{"", models.GroupOther},
	}
	for _, tc := range cases {
		cl := c.Classify([]models.GLEntry{entry(tc.category, "zzz geen match zzz", "1", 5)})
		if len(cl.Unknown) != 1 {
			t.Fatalf("category %q: expected unknown", tc.category)
		}
		if got := cl.Unknown[0].Group; got != tc.want {
			t.Fatalf("category %q: group = %s, want %s", tc.category, got, tc.want)
		}
	}
}
