package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is one ranked catalog entry in a response. SimilarityScore
// is formatted to three decimal places; fields missing from the underlying
// catalog row are reported as the literal "N/A".
type Recommendation struct {
	Rank             int    `json:"rank"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	StemField        string `json:"stem_field"`
	FinancialBarrier string `json:"financial_barrier"`
	LocationType     string `json:"location_type"`
	TargetGrade      string `json:"target_grade"`
	SimilarityScore  string `json:"similarity_score"`
	MatchPercentage  int    `json:"match_percentage"`
	URL              string `json:"url"`
	Description      string `json:"description"`
}

// Location post-filter values. "all" (or empty) disables the filter.
const (
	LocationFilterAll      = "all"
	LocationFilterVirtual  = "virtual"
	LocationFilterInPerson = "in_person"
)

// RecommendationRequest carries the profile plus optional overrides. An
// empty profile is valid; every field has a documented default.
type RecommendationRequest struct {
	Profile StudentProfile `json:"profile"`

	// Count caps the ranked list; zero means the configured default.
	Count         int      `json:"count,omitempty" validate:"omitempty,min=1,max=100"`
	MinSimilarity *float64 `json:"min_similarity,omitempty" validate:"omitempty,min=0,max=1"`

	// Optional post-filters over the ranked list.
	LocationFilter string `json:"location_filter,omitempty" validate:"omitempty,oneof=all virtual in_person"`
	GradeTolerance *int   `json:"grade_tolerance,omitempty" validate:"omitempty,min=0,max=12"`
}

type RecommendationResponse struct {
	RequestID       uuid.UUID        `json:"request_id"`
	Recommendations []Recommendation `json:"recommendations"`
	CandidateCount  int              `json:"candidate_count"`
	Relaxations     []string         `json:"relaxations,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
	CacheHit        bool             `json:"cache_hit"`
}
