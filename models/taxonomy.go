package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"bitbucket.org/horecafocus/backoffice_backend/utils"
)

// BucketGroup is the allocation grouping a bucket belongs to. Unclassified
// amounts are only ever allocated within their own group; revenue-side and
// cost-side unknowns never mix.
type BucketGroup string

const (
	GroupRevenue     BucketGroup = "revenue"
	GroupCostOfSales BucketGroup = "cost_of_sales"
	GroupLabor       BucketGroup = "labor"
	GroupOther       BucketGroup = "other"
)

// Canonical bucket names. These are the only classification targets; the
// P&L builder maps them onto the summary document.
const (
	BucketRevenueFood     = "revenue_food"
	BucketRevenueBeverage = "revenue_beverage"

	BucketCostOfSalesFood     = "cost_of_sales_food"
	BucketCostOfSalesBeverage = "cost_of_sales_beverage"

	BucketLaborContract = "labor_contract"
	BucketLaborFlex     = "labor_flex"

	BucketHousingCosts    = "housing_costs"
	BucketOperatingCosts  = "operating_costs"
	BucketSalesCosts      = "sales_costs"
	BucketAutoCosts       = "auto_costs"
	BucketOfficeCosts     = "office_costs"
	BucketInsuranceCosts  = "insurance_costs"
	BucketAccountingCosts = "accounting_costs"
	BucketAdminCosts      = "admin_costs"
	BucketOtherCosts      = "other_costs"
	BucketDepreciation    = "depreciation"
	BucketFinancialCosts  = "financial_costs"

	BucketOpbrengstVorderingen = "opbrengst_vorderingen"
)

// TaxonomyRule maps one canonical bucket to its match patterns.
//
// SubcategoryOnly marks buckets whose parent category is shared by several
// buckets (e.g. the "Overige bedrijfskosten" family). Those buckets must only
// ever match on subcategory text; a category-level match would attribute the
// shared parent to every bucket that lists it and double count the line.
type TaxonomyRule struct {
	Bucket          string      `json:"bucket" validate:"required"`
	Group           BucketGroup `json:"group" validate:"required,oneof=revenue cost_of_sales labor other"`
	Patterns        []string    `json:"patterns" validate:"required,min=1,dive,required"`
	SubcategoryOnly bool        `json:"subcategory_only"`
}

// TaxonomyTable is the classification policy for one run. It is loaded once
// per run and versioned independently of the ledger data.
//
// Rules are evaluated in slice order; when two buckets' pattern lists both
// match the same subcategory text the first rule wins. The order is policy
// data, deliberately not a priority scheme in code.
type TaxonomyTable struct {
	Rules []TaxonomyRule `json:"rules" validate:"required,min=1,dive"`

	// GroupCategories maps each allocation group to the category names whose
	// unclassifiable lines belong to that group. Matching is the same
	// case-insensitive symmetric substring test used for subcategories.
	GroupCategories map[BucketGroup][]string `json:"group_categories"`
}

var validate = validator.New()

func (t TaxonomyTable) Validate() error {
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("taxonomy: invalid rules: %v", utils.ProcessValidationErrors(verrs))
		}
		return err
	}
	seen := make(map[string]bool, len(t.Rules))
	for _, r := range t.Rules {
		if seen[r.Bucket] {
			return fmt.Errorf("taxonomy: duplicate bucket %q", r.Bucket)
		}
		seen[r.Bucket] = true
	}
	return nil
}

// BucketsInGroup returns the bucket names of a group in rule order.
func (t TaxonomyTable) BucketsInGroup(g BucketGroup) []string {
	var out []string
	for _, r := range t.Rules {
		if r.Group == g {
			out = append(out, r.Bucket)
		}
	}
	return out
}

// GroupForCategory decides which allocation group an unclassified line
// belongs to, based on its category. Lines whose category matches nothing
// fall into the other-costs group.
func (t TaxonomyTable) GroupForCategory(category string) BucketGroup {
	category = strings.TrimSpace(category)
	if category == "" {
		return GroupOther
	}
	for _, g := range []BucketGroup{GroupRevenue, GroupCostOfSales, GroupLabor} {
		for _, pattern := range t.GroupCategories[g] {
			if SubstringMatch(category, pattern) {
				return g
			}
		}
	}
	return GroupOther
}

// SubstringMatch is the symmetric, case-insensitive containment test used for
// subcategory and group-category matching. Empty strings never match; an
// empty side would otherwise be contained in everything.
func SubstringMatch(text, pattern string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if text == "" || pattern == "" {
		return false
	}
	return strings.Contains(text, pattern) || strings.Contains(pattern, text)
}

// LoadTaxonomyFile reads a taxonomy override from a JSON file (env
// TAXONOMY_FILE in the cmds). The built-in table is used when no file is
// configured.
func LoadTaxonomyFile(path string) (TaxonomyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TaxonomyTable{}, err
	}
	var t TaxonomyTable
	if err := json.Unmarshal(raw, &t); err != nil {
		return TaxonomyTable{}, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	// Hand-edited files tend to accumulate repeated patterns.
	for i := range t.Rules {
		t.Rules[i].Patterns = utils.UniqueSlice(t.Rules[i].Patterns)
	}
	if t.GroupCategories == nil {
		t.GroupCategories = DefaultTaxonomy().GroupCategories
	}
	if err := t.Validate(); err != nil {
		return TaxonomyTable{}, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return t, nil
}

// DefaultTaxonomy is the built-in mapping for the Dutch horeca ledger layout
// the integrations deliver. Pattern text is matched case-insensitively.
func DefaultTaxonomy() TaxonomyTable {
	return TaxonomyTable{
		Rules: []TaxonomyRule{
			// Revenue splits on the VAT side of "Netto-omzet"; the category is
			// shared, so both buckets are subcategory-only.
			{Bucket: BucketRevenueFood, Group: GroupRevenue, SubcategoryOnly: true,
				Patterns: []string{"omzet keuken", "omzet snacks", "omzet spijzen", "omzet lunch", "omzet diner", "keuken btw laag"}},
			{Bucket: BucketRevenueBeverage, Group: GroupRevenue, SubcategoryOnly: true,
				Patterns: []string{"omzet dranken", "omzet wijnen", "omzet bieren", "omzet frisdranken", "omzet koffie", "dranken btw hoog"}},

			{Bucket: BucketCostOfSalesFood, Group: GroupCostOfSales, SubcategoryOnly: true,
				Patterns: []string{"inkoop keuken", "inkoop spijzen", "inkopen laag", "grondstoffen keuken"}},
			{Bucket: BucketCostOfSalesBeverage, Group: GroupCostOfSales, SubcategoryOnly: true,
				Patterns: []string{"inkoop dranken", "inkoop wijnen", "inkoop bieren", "inkopen hoog"}},

			{Bucket: BucketLaborContract, Group: GroupLabor,
				Patterns: []string{"Lonen en salarissen", "brutolonen", "sociale lasten", "pensioenlasten"}},
			{Bucket: BucketLaborFlex, Group: GroupLabor,
				Patterns: []string{"Werk door derden", "uitzendkrachten", "inhuur personeel", "payroll", "oproepkrachten"}},

			{Bucket: BucketHousingCosts, Group: GroupOther,
				Patterns: []string{"Huisvestingskosten", "huur pand", "gas water licht", "onderhoud pand"}},

			// The "Overige bedrijfskosten" family shares one parent category and
			// disambiguates purely on subcategory text. Rule order decides
			// genuinely ambiguous lines (first match wins).
			{Bucket: BucketOperatingCosts, Group: GroupOther, SubcategoryOnly: true,
				Patterns: []string{"exploitatiekosten", "klein materiaal", "onderhoud inventaris", "schoonmaak"}},
			{Bucket: BucketSalesCosts, Group: GroupOther, SubcategoryOnly: true,
				Patterns: []string{"verkoopkosten", "reclame", "representatie", "marketing"}},
			{Bucket: BucketAutoCosts, Group: GroupOther, SubcategoryOnly: true,
				Patterns: []string{"autokosten", "brandstof", "lease auto"}},
			{Bucket: BucketOfficeCosts, Group: GroupOther, SubcategoryOnly: true,
				Patterns: []string{"kantoorkosten", "telefoon", "internet", "porti"}},
			{Bucket: BucketInsuranceCosts, Group: GroupOther, SubcategoryOnly: true,
				Patterns: []string{"verzekering", "assurantie"}},
			{Bucket: BucketAccountingCosts, Group: GroupOther, SubcategoryOnly: true,
				Patterns: []string{"accountant", "boekhouding"}},
			{Bucket: BucketAdminCosts, Group: GroupOther, SubcategoryOnly: true,
				Patterns: []string{"administratie", "contributie", "abonnementen"}},
			{Bucket: BucketOtherCosts, Group: GroupOther, SubcategoryOnly: true,
				Patterns: []string{"overige kosten", "diversen"}},

			{Bucket: BucketDepreciation, Group: GroupOther,
				Patterns: []string{"Afschrijvingen", "afschrijving"}},
			{Bucket: BucketFinancialCosts, Group: GroupOther,
				Patterns: []string{"Financiële baten en lasten", "rentelasten", "bankkosten"}},

			{Bucket: BucketOpbrengstVorderingen, Group: GroupOther,
				Patterns: []string{"Opbrengst vorderingen"}},
		},
		GroupCategories: map[BucketGroup][]string{
			GroupRevenue:     {"netto-omzet"},
			GroupCostOfSales: {"inkoopwaarde van de omzet", "inkoopwaarde"},
			GroupLabor:       {"personeelskosten", "lonen en salarissen", "werk door derden"},
		},
	}
}
