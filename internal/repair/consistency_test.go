package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemlight/compass/pkg/models"
)

func ruleRows(t *testing.T, applications []RuleApplication) map[string]int {
	t.Helper()
	rows := make(map[string]int, len(applications))
	for _, a := range applications {
		rows[a.Rule] = a.Rows
	}
	return rows
}

func TestApplyConsistencyRules(t *testing.T) {
	resources := []models.Resource{
		{Name: "virtual needing a ride", LocationType: "Virtual", TransportationRequired: "Yes", InternetDependency: "High"},
		{Name: "free but high barrier", Cost: "Free", FinancialBarrierLevel: "High"},
		{Name: "free but medium barrier", Cost: "free tuition", FinancialBarrierLevel: "Medium"},
		{Name: "scholarship with hidden costs", Category: "Scholarships", HiddenCostsLevel: "Medium"},
		{Name: "virtual offline", LocationType: "Virtual", InternetDependency: "Low"},
		{Name: "in-person wired", LocationType: "In-person", InternetDependency: "High", Category: "Summer Camp"},
		{Name: "online course stays wired", LocationType: "In-person", InternetDependency: "High", Category: "Online Course"},
		{Name: "free income check", Cost: "FREE", FamilyIncomeConsideration: "Yes"},
		{Name: "untouched", LocationType: "Hybrid", Cost: "$500", FinancialBarrierLevel: "High"},
	}

	applications := applyConsistencyRules(resources)
	require.Len(t, applications, 6)
	rows := ruleRows(t, applications)

	assert.Equal(t, 1, rows["virtual_requires_transportation"])
	assert.Equal(t, 2, rows["free_with_financial_barrier"])
	assert.Equal(t, 1, rows["scholarship_with_hidden_costs"])
	assert.Equal(t, 1, rows["virtual_low_internet"])
	assert.Equal(t, 1, rows["in_person_high_internet"])
	assert.Equal(t, 1, rows["free_income_consideration"])

	assert.Equal(t, "No", resources[0].TransportationRequired)
	assert.Equal(t, "Low", resources[1].FinancialBarrierLevel)
	assert.Equal(t, "Low", resources[2].FinancialBarrierLevel)
	assert.Equal(t, "Low", resources[3].HiddenCostsLevel)
	assert.Equal(t, "High", resources[4].InternetDependency)
	assert.Equal(t, "Low", resources[5].InternetDependency)
	assert.Equal(t, "High", resources[6].InternetDependency, "online-category rows keep their dependency")
	assert.Equal(t, "No", resources[7].FamilyIncomeConsideration)
	assert.Equal(t, "High", resources[8].FinancialBarrierLevel, "paid resources keep their barrier")
}

func TestApplyConsistencyRules_RowCanMatchSeveralRules(t *testing.T) {
	resources := []models.Resource{{
		Name:                      "free virtual mess",
		LocationType:              "Virtual",
		TransportationRequired:    "Yes",
		InternetDependency:        "Low",
		Cost:                      "Free",
		FinancialBarrierLevel:     "High",
		FamilyIncomeConsideration: "Yes",
	}}

	rows := ruleRows(t, applyConsistencyRules(resources))

	assert.Equal(t, 1, rows["virtual_requires_transportation"])
	assert.Equal(t, 1, rows["free_with_financial_barrier"])
	assert.Equal(t, 1, rows["virtual_low_internet"])
	assert.Equal(t, 1, rows["free_income_consideration"])

	r := resources[0]
	assert.Equal(t, "No", r.TransportationRequired)
	assert.Equal(t, "Low", r.FinancialBarrierLevel)
	assert.Equal(t, "High", r.InternetDependency)
	assert.Equal(t, "No", r.FamilyIncomeConsideration)
}

func TestApplyConsistencyRules_Idempotent(t *testing.T) {
	resources := []models.Resource{
		{LocationType: "Virtual", TransportationRequired: "Yes"},
		{Cost: "Free", FinancialBarrierLevel: "Medium", FamilyIncomeConsideration: "Yes"},
	}

	applyConsistencyRules(resources)
	second := ruleRows(t, applyConsistencyRules(resources))

	for rule, rows := range second {
		assert.Zero(t, rows, "rule %s fired again on repaired data", rule)
	}
}
