// Package catalog reads and writes the opportunity catalog CSV. The 29
// schema columns are a fixed, ordered contract with the upstream scrapers;
// the three derived columns are appended by the repair pipeline. Columns
// outside the contract are preserved across a load/save round trip.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/stemlight/compass/pkg/models"
)

// SchemaColumns is the ordered 29-column contract every scraper emits.
var SchemaColumns = []string{
	"name", "description", "url", "source", "category", "stem_fields",
	"target_grade", "cost", "location_type", "time_commitment",
	"prerequisite_level", "support_level", "deadline",
	"financial_barrier_level", "financial_aid_available",
	"family_income_consideration", "hidden_costs_level", "cost_category",
	"diversity_focus", "underrepresented_friendly", "first_gen_support",
	"cultural_competency", "rural_accessible", "transportation_required",
	"internet_dependency", "regional_availability",
	"family_involvement_required", "peer_network_building",
	"mentor_access_level",
}

// DerivedColumns are written by the repair pipeline and consumed by the
// recommendation engine.
var DerivedColumns = []string{
	"category_tier1", "stem_field_tier1", "target_grade_standardized",
}

type fieldAccessor struct {
	get func(*models.Resource) string
	set func(*models.Resource, string)
}

var fieldAccessors = map[string]fieldAccessor{
	"name":                        {func(r *models.Resource) string { return r.Name }, func(r *models.Resource, v string) { r.Name = v }},
	"description":                 {func(r *models.Resource) string { return r.Description }, func(r *models.Resource, v string) { r.Description = v }},
	"url":                         {func(r *models.Resource) string { return r.URL }, func(r *models.Resource, v string) { r.URL = v }},
	"source":                      {func(r *models.Resource) string { return r.Source }, func(r *models.Resource, v string) { r.Source = v }},
	"category":                    {func(r *models.Resource) string { return r.Category }, func(r *models.Resource, v string) { r.Category = v }},
	"stem_fields":                 {func(r *models.Resource) string { return r.StemFields }, func(r *models.Resource, v string) { r.StemFields = v }},
	"target_grade":                {func(r *models.Resource) string { return r.TargetGrade }, func(r *models.Resource, v string) { r.TargetGrade = v }},
	"cost":                        {func(r *models.Resource) string { return r.Cost }, func(r *models.Resource, v string) { r.Cost = v }},
	"location_type":               {func(r *models.Resource) string { return r.LocationType }, func(r *models.Resource, v string) { r.LocationType = v }},
	"time_commitment":             {func(r *models.Resource) string { return r.TimeCommitment }, func(r *models.Resource, v string) { r.TimeCommitment = v }},
	"prerequisite_level":          {func(r *models.Resource) string { return r.PrerequisiteLevel }, func(r *models.Resource, v string) { r.PrerequisiteLevel = v }},
	"support_level":               {func(r *models.Resource) string { return r.SupportLevel }, func(r *models.Resource, v string) { r.SupportLevel = v }},
	"deadline":                    {func(r *models.Resource) string { return r.Deadline }, func(r *models.Resource, v string) { r.Deadline = v }},
	"financial_barrier_level":     {func(r *models.Resource) string { return r.FinancialBarrierLevel }, func(r *models.Resource, v string) { r.FinancialBarrierLevel = v }},
	"financial_aid_available":     {func(r *models.Resource) string { return r.FinancialAidAvailable }, func(r *models.Resource, v string) { r.FinancialAidAvailable = v }},
	"family_income_consideration": {func(r *models.Resource) string { return r.FamilyIncomeConsideration }, func(r *models.Resource, v string) { r.FamilyIncomeConsideration = v }},
	"hidden_costs_level":          {func(r *models.Resource) string { return r.HiddenCostsLevel }, func(r *models.Resource, v string) { r.HiddenCostsLevel = v }},
	"cost_category":               {func(r *models.Resource) string { return r.CostCategory }, func(r *models.Resource, v string) { r.CostCategory = v }},
	"diversity_focus":             {func(r *models.Resource) string { return r.DiversityFocus }, func(r *models.Resource, v string) { r.DiversityFocus = v }},
	"underrepresented_friendly":   {func(r *models.Resource) string { return r.UnderrepresentedFriendly }, func(r *models.Resource, v string) { r.UnderrepresentedFriendly = v }},
	"first_gen_support":           {func(r *models.Resource) string { return r.FirstGenSupport }, func(r *models.Resource, v string) { r.FirstGenSupport = v }},
	"cultural_competency":         {func(r *models.Resource) string { return r.CulturalCompetency }, func(r *models.Resource, v string) { r.CulturalCompetency = v }},
	"rural_accessible":            {func(r *models.Resource) string { return r.RuralAccessible }, func(r *models.Resource, v string) { r.RuralAccessible = v }},
	"transportation_required":     {func(r *models.Resource) string { return r.TransportationRequired }, func(r *models.Resource, v string) { r.TransportationRequired = v }},
	"internet_dependency":         {func(r *models.Resource) string { return r.InternetDependency }, func(r *models.Resource, v string) { r.InternetDependency = v }},
	"regional_availability":       {func(r *models.Resource) string { return r.RegionalAvailability }, func(r *models.Resource, v string) { r.RegionalAvailability = v }},
	"family_involvement_required": {func(r *models.Resource) string { return r.FamilyInvolvementRequired }, func(r *models.Resource, v string) { r.FamilyInvolvementRequired = v }},
	"peer_network_building":       {func(r *models.Resource) string { return r.PeerNetworkBuilding }, func(r *models.Resource, v string) { r.PeerNetworkBuilding = v }},
	"mentor_access_level":         {func(r *models.Resource) string { return r.MentorAccessLevel }, func(r *models.Resource, v string) { r.MentorAccessLevel = v }},
	"category_tier1":              {func(r *models.Resource) string { return r.CategoryTier1 }, func(r *models.Resource, v string) { r.CategoryTier1 = v }},
	"stem_field_tier1":            {func(r *models.Resource) string { return r.StemFieldTier1 }, func(r *models.Resource, v string) { r.StemFieldTier1 = v }},
	"target_grade_standardized":   {func(r *models.Resource) string { return r.TargetGradeStandardized }, func(r *models.Resource, v string) { r.TargetGradeStandardized = v }},
}

// Catalog is the in-memory resource table. Row order matches the CSV and
// must never be disturbed: the TF-IDF matrix and cluster assignments are
// aligned by index.
type Catalog struct {
	Resources []models.Resource

	// extraColumns preserves out-of-contract column order for writes.
	extraColumns []string
}

func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return c, nil
}

func Read(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	position := make(map[string]int, len(header))
	for i, name := range header {
		position[name] = i
	}

	for _, required := range SchemaColumns {
		if _, ok := position[required]; !ok {
			return nil, fmt.Errorf("catalog is missing required column %q", required)
		}
	}

	known := make(map[string]bool, len(fieldAccessors))
	for name := range fieldAccessors {
		known[name] = true
	}
	var extraColumns []string
	for _, name := range header {
		if !known[name] {
			extraColumns = append(extraColumns, name)
		}
	}

	c := &Catalog{extraColumns: extraColumns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(c.Resources)+2, err)
		}

		var res models.Resource
		for name, accessor := range fieldAccessors {
			if idx, ok := position[name]; ok {
				accessor.set(&res, record[idx])
			}
		}
		if len(extraColumns) > 0 {
			res.Extra = make(map[string]string, len(extraColumns))
			for _, name := range extraColumns {
				res.Extra[name] = record[position[name]]
			}
		}
		c.Resources = append(c.Resources, res)
	}

	return c, nil
}

// Save writes the catalog with the contract columns first, the derived
// columns next and any preserved extras last.
func (c *Catalog) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}
	defer f.Close()

	if err := c.Write(f); err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}
	return nil
}

func (c *Catalog) Write(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(SchemaColumns)+len(DerivedColumns)+len(c.extraColumns))
	header = append(header, SchemaColumns...)
	header = append(header, DerivedColumns...)
	header = append(header, c.extraColumns...)
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i := range c.Resources {
		res := &c.Resources[i]
		for j, name := range header {
			if accessor, ok := fieldAccessors[name]; ok {
				record[j] = accessor.get(res)
			} else {
				record[j] = res.Extra[name]
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// Len returns the row count.
func (c *Catalog) Len() int {
	return len(c.Resources)
}

// DistinctStemFields returns the distinct tier-1 STEM field labels in
// first-appearance order, skipping empties. The one-hot encoders depend on
// this ordering being stable.
func (c *Catalog) DistinctStemFields() []string {
	return c.distinct(func(r *models.Resource) string { return r.Tier1StemField() })
}

// DistinctCategories returns the distinct tier-1 category labels in
// first-appearance order, skipping empties.
func (c *Catalog) DistinctCategories() []string {
	return c.distinct(func(r *models.Resource) string { return r.Tier1Category() })
}

func (c *Catalog) distinct(field func(*models.Resource) string) []string {
	seen := make(map[string]bool)
	var values []string
	for i := range c.Resources {
		v := field(&c.Resources[i])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
