package services

import (
	"fmt"

	"github.com/stemlight/compass/internal/ml"
	"github.com/stemlight/compass/pkg/models"
)

// Ordinal scales for the categorical profile fields. Values outside a scale
// fall back to the same default the profile normalizer uses.
var (
	financialScale = map[string]float64{
		models.FinancialLow:    0,
		models.FinancialMedium: 1,
		models.FinancialHigh:   2,
	}
	locationScale = map[string]float64{
		models.LocationVirtual:  0,
		models.LocationHybrid:   1,
		models.LocationInPerson: 2,
	}
	academicScale = map[string]float64{
		models.AcademicNone:         0,
		models.AcademicBeginner:     1,
		models.AcademicIntermediate: 2,
		models.AcademicAdvanced:     3,
	}
	supportScale = map[string]float64{
		models.SupportLow:    0,
		models.SupportMedium: 1,
		models.SupportHigh:   2,
	}
)

// FeatureEncoder maps student profiles into the four numeric spaces the
// clustering artifacts were trained on. The one-hot vocabularies are the
// catalog's distinct tier-1 STEM fields and categories in first-appearance
// order, which is the order the training job used.
type FeatureEncoder struct {
	stemFields []string
	categories []string
}

func NewFeatureEncoder(stemFields, categories []string) *FeatureEncoder {
	return &FeatureEncoder{stemFields: stemFields, categories: categories}
}

// AccessibilityVector encodes the five accessibility features: the financial
// signal repeated as barrier, hidden-cost and cost-category tolerance, the
// location preference, and transportation. A Low budget encodes low so it
// lands near low-barrier resources; students without transportation encode a
// strong avoidance of transport-dependent resources.
func (e *FeatureEncoder) AccessibilityVector(p *models.StudentProfile, scaler *ml.StandardScaler) ([]float64, error) {
	financial := ordinal(financialScale, p.FinancialSituation, 0)
	location := ordinal(locationScale, p.Location, 0)

	transport := 0.0
	if p.TransportationAvailable == nil || !*p.TransportationAvailable {
		transport = 2
	}

	vec := []float64{financial, financial, financial, location, transport}
	return scaleVector(vec, scaler)
}

// AcademicVector encodes prerequisite level, grade, weekly hours and support
// need. Grade and hours pass through as continuous values.
func (e *FeatureEncoder) AcademicVector(p *models.StudentProfile, scaler *ml.StandardScaler) ([]float64, error) {
	prereq := ordinal(academicScale, p.AcademicLevel, 1)

	grade := float64(p.GradeLevel)
	if p.GradeLevel == 0 {
		grade = 9
	}
	hours := p.TimeAvailability
	if hours == 0 {
		hours = 5
	}

	support := ordinal(supportScale, p.SupportNeeded, 1)

	vec := []float64{prereq, grade, hours, support}
	return scaleVector(vec, scaler)
}

// StemInterestVector one-hot encodes the student's STEM interests over the
// catalog's STEM-field vocabulary, concatenated with their format
// preferences over the category vocabulary. Binary space, never scaled.
func (e *FeatureEncoder) StemInterestVector(p *models.StudentProfile) []float64 {
	vec := make([]float64, 0, len(e.stemFields)+len(e.categories))
	for _, field := range e.stemFields {
		vec = append(vec, oneHot(p.StemFields, field))
	}
	for _, category := range e.categories {
		vec = append(vec, oneHot(p.FormatPreferences, category))
	}
	return vec
}

// FormatVector one-hot encodes format preferences over the category
// vocabulary with [hours, support] appended. Only the trailing numeric pair
// is scaled; the one-hot block stays binary.
func (e *FeatureEncoder) FormatVector(p *models.StudentProfile, scaler *ml.StandardScaler) ([]float64, error) {
	vec := make([]float64, 0, len(e.categories)+2)
	for _, category := range e.categories {
		vec = append(vec, oneHot(p.FormatPreferences, category))
	}

	hours := p.TimeAvailability
	if hours == 0 {
		hours = 5
	}
	support := ordinal(supportScale, p.SupportNeeded, 1)
	vec = append(vec, hours, support)

	if scaler != nil {
		if scaler.Dimensions() != 2 {
			return nil, fmt.Errorf("format scaler covers %d features, expected 2", scaler.Dimensions())
		}
		scaled, err := scaler.Transform(vec[len(vec)-2:])
		if err != nil {
			return nil, err
		}
		copy(vec[len(vec)-2:], scaled)
	}
	return vec, nil
}

func ordinal(scale map[string]float64, value string, fallback float64) float64 {
	if encoded, ok := scale[value]; ok {
		return encoded
	}
	return fallback
}

func oneHot(selected []string, label string) float64 {
	for _, s := range selected {
		if s == label {
			return 1
		}
	}
	return 0
}

func scaleVector(vec []float64, scaler *ml.StandardScaler) ([]float64, error) {
	if scaler == nil {
		return vec, nil
	}
	return scaler.Transform(vec)
}
