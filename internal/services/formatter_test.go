package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemlight/compass/pkg/models"
)

func TestMatchPercentage_Bands(t *testing.T) {
	tests := []struct {
		rank int
		want int
	}{
		{1, 95}, {2, 92}, {3, 88}, {4, 85},
		{5, 84}, {6, 81}, {7, 78}, {8, 75},
		{9, 74}, {10, 72}, {11, 70}, {12, 67}, {13, 64}, {14, 60},
		{15, 59}, {16, 56}, {17, 53}, {18, 50}, {19, 47}, {20, 45},
		{21, 45}, {100, 45},
		{0, 95}, // clamped to the first position
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPercentage(tt.rank), "rank %d", tt.rank)
	}
}

func TestFormatRecommendations(t *testing.T) {
	catalog := []models.Resource{
		{
			Name:                    "Robotics League",
			CategoryTier1:           "Competition",
			StemFieldTier1:          "Engineering",
			FinancialBarrierLevel:   "Low",
			LocationType:            "Hybrid",
			TargetGradeStandardized: "9-12",
			URL:                     "https://example.org/robotics",
			Description:             "Build robots.",
		},
		{
			Name: "Mystery Row",
			// Every other field is missing.
		},
	}

	recs := formatRecommendations(catalog, []rankedResource{
		{Index: 0, Score: 0.87654},
		{Index: 1, Score: 0.2},
	})
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "Robotics League", first.Name)
	assert.Equal(t, "Competition", first.Category)
	assert.Equal(t, "Engineering", first.StemField)
	assert.Equal(t, "Low", first.FinancialBarrier)
	assert.Equal(t, "Hybrid", first.LocationType)
	assert.Equal(t, "9-12", first.TargetGrade)
	assert.Equal(t, "0.877", first.SimilarityScore)
	assert.Equal(t, 95, first.MatchPercentage)
	assert.Equal(t, "https://example.org/robotics", first.URL)
	assert.Equal(t, "Build robots.", first.Description)

	second := recs[1]
	assert.Equal(t, 2, second.Rank)
	assert.Equal(t, "N/A", second.Category)
	assert.Equal(t, "N/A", second.StemField)
	assert.Equal(t, "N/A", second.FinancialBarrier)
	assert.Equal(t, "N/A", second.LocationType)
	assert.Equal(t, "N/A", second.TargetGrade)
	assert.Equal(t, "N/A", second.URL)
	assert.Equal(t, "N/A", second.Description)
	assert.Equal(t, "0.200", second.SimilarityScore)
	assert.Equal(t, 92, second.MatchPercentage)
}

func TestFormatRecommendations_PrefersDerivedColumns(t *testing.T) {
	catalog := []models.Resource{{
		Name:        "Raw Row",
		Category:    "Online Courses & Tutorials",
		StemFields:  "Comp Sci, Robotics",
		TargetGrade: "9th-12th grade",
	}}

	recs := formatRecommendations(catalog, []rankedResource{{Index: 0, Score: 0.5}})
	require.Len(t, recs, 1)

	// Without derived columns the raw values stand in.
	assert.Equal(t, "Online Courses & Tutorials", recs[0].Category)
	assert.Equal(t, "Comp Sci, Robotics", recs[0].StemField)
	assert.Equal(t, "9th-12th grade", recs[0].TargetGrade)
}

func TestFormatRecommendations_SkipsBadIndicesKeepingRanksContinuous(t *testing.T) {
	catalog := []models.Resource{{Name: "A"}, {Name: "B"}}

	recs := formatRecommendations(catalog, []rankedResource{
		{Index: 0, Score: 0.9},
		{Index: 42, Score: 0.8},
		{Index: 1, Score: 0.7},
	})
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Rank)
	assert.Equal(t, "A", recs[0].Name)
	assert.Equal(t, 2, recs[1].Rank)
	assert.Equal(t, "B", recs[1].Name)
}

func TestTruncateDescription(t *testing.T) {
	assert.Equal(t, "N/A", truncateDescription(""))
	assert.Equal(t, "short", truncateDescription("short"))

	exact := strings.Repeat("x", 200)
	assert.Equal(t, exact, truncateDescription(exact))

	long := strings.Repeat("x", 201)
	got := truncateDescription(long)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))

	// Rune-aware: multibyte text is cut between characters, not bytes.
	wide := strings.Repeat("ö", 250)
	got = truncateDescription(wide)
	assert.Equal(t, strings.Repeat("ö", 200)+"...", got)
}

func TestOrNA(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "value", orNA("value"))
}
