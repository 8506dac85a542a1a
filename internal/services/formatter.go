package services

import (
	"fmt"

	"github.com/stemlight/compass/pkg/models"
)

const maxDescriptionRunes = 200

// matchPercentageBands maps rank positions onto the percentage scale shown
// to students. Each band covers a run of ranks; positions past the end of
// the last band all share its final value.
var matchPercentageBands = []struct {
	firstRank int
	values    []int
}{
	{1, []int{95, 92, 88, 85}},
	{5, []int{84, 81, 78, 75}},
	{9, []int{74, 72, 70, 67, 64, 60}},
	{15, []int{59, 56, 53, 50, 47, 45}},
}

func matchPercentage(rank int) int {
	if rank < 1 {
		rank = 1
	}
	band := matchPercentageBands[0]
	for _, b := range matchPercentageBands {
		if rank < b.firstRank {
			break
		}
		band = b
	}
	return band.values[min(rank-band.firstRank, len(band.values)-1)]
}

// formatRecommendations maps ranked row indices back to catalog rows and
// shapes them for the response. Rank is assigned 1-based over the surviving
// order, so it stays continuous even if an index fell out of range.
func formatRecommendations(catalog []models.Resource, ranked []rankedResource) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(catalog) {
			continue
		}
		row := &catalog[r.Index]
		rank := len(recs) + 1
		recs = append(recs, models.Recommendation{
			Rank:             rank,
			Name:             orNA(row.Name),
			Category:         orNA(row.Tier1Category()),
			StemField:        orNA(row.Tier1StemField()),
			FinancialBarrier: orNA(row.FinancialBarrierLevel),
			LocationType:     orNA(row.LocationType),
			TargetGrade:      orNA(row.GradeLabel()),
			SimilarityScore:  fmt.Sprintf("%.3f", r.Score),
			MatchPercentage:  matchPercentage(rank),
			URL:              orNA(row.URL),
			Description:      truncateDescription(row.Description),
		})
	}
	return recs
}

// truncateDescription caps a description at 200 runes with an ellipsis
// marker. Counting runes, not bytes, keeps multibyte text intact.
func truncateDescription(desc string) string {
	if desc == "" {
		return "N/A"
	}
	runes := []rune(desc)
	if len(runes) <= maxDescriptionRunes {
		return desc
	}
	return string(runes[:maxDescriptionRunes]) + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
