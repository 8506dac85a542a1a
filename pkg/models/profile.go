package models

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// Canonical profile field values. Encoders treat anything outside these sets
// as the documented default rather than failing.
const (
	FinancialLow    = "Low"
	FinancialMedium = "Medium"
	FinancialHigh   = "High"

	LocationVirtual  = "Virtual"
	LocationHybrid   = "Hybrid"
	LocationInPerson = "In-person"

	AcademicNone         = "None"
	AcademicBeginner     = "Beginner"
	AcademicIntermediate = "Intermediate"
	AcademicAdvanced     = "Advanced"

	SupportLow    = "Low"
	SupportMedium = "Medium"
	SupportHigh   = "High"
)

// StudentProfile is the ephemeral input to a recommendation request. It is
// never persisted; each request constructs one, the engine consumes it and
// the profile is discarded.
type StudentProfile struct {
	FinancialSituation      string   `json:"financial_situation,omitempty" validate:"omitempty,oneof=Low Medium High"`
	Location                string   `json:"location,omitempty" validate:"omitempty,oneof=Virtual Hybrid In-person"`
	TransportationAvailable *bool    `json:"transportation_available,omitempty"`
	GradeLevel              int      `json:"grade_level,omitempty" validate:"omitempty,min=1,max=12"`
	AcademicLevel           string   `json:"academic_level,omitempty" validate:"omitempty,oneof=None Beginner Intermediate Advanced"`
	TimeAvailability        float64  `json:"time_availability,omitempty" validate:"omitempty,min=0,max=168"`
	SupportNeeded           string   `json:"support_needed,omitempty" validate:"omitempty,oneof=Low Medium High"`
	StemFields              []string `json:"stem_fields,omitempty"`
	FormatPreferences       []string `json:"format_preferences,omitempty"`
	StemInterests           string   `json:"stem_interests,omitempty"`
}

// Normalize fills every omitted field with its documented default so the
// encoders never see a hole: financial Low, location Virtual, no
// transportation, grade 9, academic Beginner, five hours a week, support
// Medium.
func (p *StudentProfile) Normalize() {
	if p.FinancialSituation == "" {
		p.FinancialSituation = FinancialLow
	}
	if p.Location == "" {
		p.Location = LocationVirtual
	}
	if p.TransportationAvailable == nil {
		available := false
		p.TransportationAvailable = &available
	}
	if p.GradeLevel == 0 {
		p.GradeLevel = 9
	}
	if p.AcademicLevel == "" {
		p.AcademicLevel = AcademicBeginner
	}
	if p.TimeAvailability == 0 {
		p.TimeAvailability = 5
	}
	if p.SupportNeeded == "" {
		p.SupportNeeded = SupportMedium
	}
}

// InterestText returns the free-text interest statement, falling back to the
// space-joined STEM field labels when no free text was given.
func (p *StudentProfile) InterestText() string {
	if strings.TrimSpace(p.StemInterests) != "" {
		return p.StemInterests
	}
	return strings.Join(p.StemFields, " ")
}

// Hash produces a stable cache key for the normalized profile. List fields
// are sorted first so two profiles differing only in element order hash the
// same.
func (p *StudentProfile) Hash() string {
	stem := append([]string(nil), p.StemFields...)
	sort.Strings(stem)
	formats := append([]string(nil), p.FormatPreferences...)
	sort.Strings(formats)

	transport := false
	if p.TransportationAvailable != nil {
		transport = *p.TransportationAvailable
	}

	key := fmt.Sprintf("%s|%s|%t|%d|%s|%g|%s|%s|%s|%s",
		p.FinancialSituation, p.Location, transport, p.GradeLevel,
		p.AcademicLevel, p.TimeAvailability, p.SupportNeeded,
		strings.Join(stem, ","), strings.Join(formats, ","), p.StemInterests)

	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum[:16])
}
