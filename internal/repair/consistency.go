package repair

import (
	"strings"

	"github.com/stemlight/compass/pkg/models"
)

// ConsistencyRule rewrites one field wherever its mask matches. Rules run in
// table order over the whole catalog; each is independent of the others'
// reads, so ordering only affects log output.
type ConsistencyRule struct {
	Name    string
	Applies func(*models.Resource) bool
	Fix     func(*models.Resource)
}

// RuleApplication records how many rows one rule touched.
type RuleApplication struct {
	Rule string `json:"rule"`
	Rows int    `json:"rows"`
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func elevated(level string) bool {
	return level == "High" || level == "Medium"
}

func consistencyRules() []ConsistencyRule {
	return []ConsistencyRule{
		{
			Name: "virtual_requires_transportation",
			Applies: func(r *models.Resource) bool {
				return r.LocationType == models.LocationVirtual && r.TransportationRequired == "Yes"
			},
			Fix: func(r *models.Resource) { r.TransportationRequired = "No" },
		},
		{
			Name: "free_with_financial_barrier",
			Applies: func(r *models.Resource) bool {
				return containsFold(r.Cost, "free") && elevated(r.FinancialBarrierLevel)
			},
			Fix: func(r *models.Resource) { r.FinancialBarrierLevel = "Low" },
		},
		{
			Name: "scholarship_with_hidden_costs",
			Applies: func(r *models.Resource) bool {
				return containsFold(r.Category, "scholarship") && elevated(r.HiddenCostsLevel)
			},
			Fix: func(r *models.Resource) { r.HiddenCostsLevel = "Low" },
		},
		{
			Name: "virtual_low_internet",
			Applies: func(r *models.Resource) bool {
				return r.LocationType == models.LocationVirtual && r.InternetDependency == "Low"
			},
			Fix: func(r *models.Resource) { r.InternetDependency = "High" },
		},
		{
			Name: "in_person_high_internet",
			Applies: func(r *models.Resource) bool {
				return r.LocationType == models.LocationInPerson &&
					r.InternetDependency == "High" &&
					!containsFold(r.Category, "online")
			},
			Fix: func(r *models.Resource) { r.InternetDependency = "Low" },
		},
		{
			Name: "free_income_consideration",
			Applies: func(r *models.Resource) bool {
				return containsFold(r.Cost, "free") && r.FamilyIncomeConsideration == "Yes"
			},
			Fix: func(r *models.Resource) { r.FamilyIncomeConsideration = "No" },
		},
	}
}

// applyConsistencyRules runs the rule table over every row, returning the
// per-rule touch counts in table order.
func applyConsistencyRules(resources []models.Resource) []RuleApplication {
	rules := consistencyRules()
	applications := make([]RuleApplication, 0, len(rules))

	for _, rule := range rules {
		rows := 0
		for i := range resources {
			if rule.Applies(&resources[i]) {
				rule.Fix(&resources[i])
				rows++
			}
		}
		applications = append(applications, RuleApplication{Rule: rule.Name, Rows: rows})
	}
	return applications
}
