package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsolidateStemField(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		// Canonical values survive untouched.
		{"Computer Science", "Computer Science"},
		{"Engineering", "Engineering"},
		{"Multidisciplinary STEM", "Multidisciplinary STEM"},
		{"Other STEM", "Other STEM"},

		// Keyword matches.
		{"Coding Bootcamps", "Computer Science"},
		{"Machine Learning Research", "Computer Science"},
		{"Cybersecurity", "Computer Science"},
		{"Robotics", "Engineering"},
		{"Aerospace Engineering", "Engineering"},
		{"Statistics", "Mathematics"},
		{"Applied Math", "Mathematics"},
		{"Astrophysics", "Physics"},
		{"Biochemistry", "Chemistry"},
		{"Geology", "Earth Sciences"},
		{"Climate Science", "Earth Sciences"},
		{"Zoology", "Biology"},
		{"Genetics", "Biology"},
		{"Public Health", "Health Sciences"},
		{"Neuroscience", "Health Sciences"},
		{"Information Technology", "Technology"},
		{"Food Science", "Agriculture"},
		{"General STEM", "Multidisciplinary STEM"},

		// Multi-value strings keep the first entry.
		{"Biology; Chemistry", "Biology"},
		{"Math, Physics, Engineering", "Mathematics"},

		// Fallbacks.
		{"Other Sciences", "Multidisciplinary STEM"},
		{"Dance", "Other STEM"},
		{"", "Multidisciplinary STEM"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsolidateStemField(tt.input), "input %q", tt.input)
		})
	}
}

func TestConsolidateStemField_Idempotent(t *testing.T) {
	inputs := []string{
		"Coding Bootcamps", "Robotics", "Biology; Chemistry", "Dance",
		"Other Sciences", "", "Computer Science", "General STEM",
	}
	for _, input := range inputs {
		once := ConsolidateStemField(input)
		assert.Equal(t, once, ConsolidateStemField(once), "not idempotent for %q", input)
	}
}

func TestConsolidateStemField_PaletteClosed(t *testing.T) {
	// Whatever goes in, one of the twelve canonical names comes out.
	canonical := make(map[string]bool, len(stemFieldBuckets))
	for _, bucket := range stemFieldBuckets {
		canonical[bucket.canonical] = true
	}

	inputs := []string{
		"Quantum Computing", "Marine Biology", "Art History", "NASA Internship",
		"stem outreach", "Data Science & AI", "", "Chemistry;Physics",
	}
	for _, input := range inputs {
		got := ConsolidateStemField(input)
		assert.True(t, canonical[got], "input %q escaped the palette: %q", input, got)
	}
}
