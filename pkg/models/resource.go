package models

// Resource is one row of the opportunity catalog. The first 29 fields mirror
// the fixed CSV schema every scraper emits; the Tier1 and standardized fields
// are derived by the repair pipeline before the catalog is ever served.
type Resource struct {
	Name                      string `json:"name" csv:"name"`
	Description               string `json:"description" csv:"description"`
	URL                       string `json:"url" csv:"url"`
	Source                    string `json:"source" csv:"source"`
	Category                  string `json:"category" csv:"category"`
	StemFields                string `json:"stem_fields" csv:"stem_fields"`
	TargetGrade               string `json:"target_grade" csv:"target_grade"`
	Cost                      string `json:"cost" csv:"cost"`
	LocationType              string `json:"location_type" csv:"location_type"`
	TimeCommitment            string `json:"time_commitment" csv:"time_commitment"`
	PrerequisiteLevel         string `json:"prerequisite_level" csv:"prerequisite_level"`
	SupportLevel              string `json:"support_level" csv:"support_level"`
	Deadline                  string `json:"deadline" csv:"deadline"`
	FinancialBarrierLevel     string `json:"financial_barrier_level" csv:"financial_barrier_level"`
	FinancialAidAvailable     string `json:"financial_aid_available" csv:"financial_aid_available"`
	FamilyIncomeConsideration string `json:"family_income_consideration" csv:"family_income_consideration"`
	HiddenCostsLevel          string `json:"hidden_costs_level" csv:"hidden_costs_level"`
	CostCategory              string `json:"cost_category" csv:"cost_category"`
	DiversityFocus            string `json:"diversity_focus" csv:"diversity_focus"`
	UnderrepresentedFriendly  string `json:"underrepresented_friendly" csv:"underrepresented_friendly"`
	FirstGenSupport           string `json:"first_gen_support" csv:"first_gen_support"`
	CulturalCompetency        string `json:"cultural_competency" csv:"cultural_competency"`
	RuralAccessible           string `json:"rural_accessible" csv:"rural_accessible"`
	TransportationRequired    string `json:"transportation_required" csv:"transportation_required"`
	InternetDependency        string `json:"internet_dependency" csv:"internet_dependency"`
	RegionalAvailability      string `json:"regional_availability" csv:"regional_availability"`
	FamilyInvolvementRequired string `json:"family_involvement_required" csv:"family_involvement_required"`
	PeerNetworkBuilding       string `json:"peer_network_building" csv:"peer_network_building"`
	MentorAccessLevel         string `json:"mentor_access_level" csv:"mentor_access_level"`

	// Derived columns, written by the repair pipeline.
	CategoryTier1           string `json:"category_tier1,omitempty" csv:"category_tier1"`
	StemFieldTier1          string `json:"stem_field_tier1,omitempty" csv:"stem_field_tier1"`
	TargetGradeStandardized string `json:"target_grade_standardized,omitempty" csv:"target_grade_standardized"`

	// Columns outside the schema contract are carried through untouched so a
	// repair run never loses data.
	Extra map[string]string `json:"-" csv:"-"`
}

// Tier1Category falls back to the raw category when the derived column has
// not been populated yet.
func (r *Resource) Tier1Category() string {
	if r.CategoryTier1 != "" {
		return r.CategoryTier1
	}
	return r.Category
}

// Tier1StemField falls back to the raw multi-value field when the derived
// column has not been populated yet.
func (r *Resource) Tier1StemField() string {
	if r.StemFieldTier1 != "" {
		return r.StemFieldTier1
	}
	return r.StemFields
}

// GradeLabel prefers the standardized grade band over the raw string.
func (r *Resource) GradeLabel() string {
	if r.TargetGradeStandardized != "" {
		return r.TargetGradeStandardized
	}
	return r.TargetGrade
}
