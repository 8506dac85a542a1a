package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCSV assembles a catalog CSV from sparse row maps so fixtures stay
// readable despite the wide schema.
func buildCSV(t *testing.T, columns []string, rows []map[string]string) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString(strings.Join(columns, ","))
	sb.WriteString("\n")
	for _, row := range rows {
		fields := make([]string, len(columns))
		for i, col := range columns {
			fields[i] = row[col]
		}
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestRead_SchemaColumns(t *testing.T) {
	csv := buildCSV(t, SchemaColumns, []map[string]string{
		{
			"name":              "Robotics Club",
			"description":       "Weekly robotics meetups",
			"category":          "Clubs",
			"stem_fields":       "Robotics",
			"target_grade":      "9th-12th Grade",
			"location_type":     "In-person",
			"support_level":     "High",
			"cost_category":     "Free",
			"mentor_access_level": "High",
		},
		{
			"name":          "Math Olympiad Prep",
			"category":      "Competitions",
			"stem_fields":   "Mathematics",
			"location_type": "Virtual",
		},
	})

	c, err := Read(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	assert.Equal(t, "Robotics Club", c.Resources[0].Name)
	assert.Equal(t, "Weekly robotics meetups", c.Resources[0].Description)
	assert.Equal(t, "High", c.Resources[0].MentorAccessLevel)
	assert.Equal(t, "Virtual", c.Resources[1].LocationType)
	assert.Empty(t, c.Resources[1].Description)
	assert.Nil(t, c.Resources[1].Extra)
}

func TestRead_MissingRequiredColumn(t *testing.T) {
	columns := make([]string, 0, len(SchemaColumns)-1)
	for _, col := range SchemaColumns {
		if col == "support_level" {
			continue
		}
		columns = append(columns, col)
	}
	csv := buildCSV(t, columns, nil)

	_, err := Read(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "support_level")
}

func TestRead_DerivedAndExtraColumns(t *testing.T) {
	columns := append(append([]string{}, SchemaColumns...), DerivedColumns...)
	columns = append(columns, "scraped_at")

	csv := buildCSV(t, columns, []map[string]string{
		{
			"name":                      "Coding Bootcamp",
			"category":                  "After-School Program",
			"category_tier1":            "Programs",
			"stem_field_tier1":          "Computer Science",
			"target_grade_standardized": "9-12",
			"scraped_at":                "2026-01-15",
		},
	})

	c, err := Read(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	res := c.Resources[0]
	assert.Equal(t, "Programs", res.CategoryTier1)
	assert.Equal(t, "Computer Science", res.StemFieldTier1)
	assert.Equal(t, "9-12", res.TargetGradeStandardized)
	assert.Equal(t, "2026-01-15", res.Extra["scraped_at"])
}

func TestRead_RaggedRow(t *testing.T) {
	csv := strings.Join(SchemaColumns, ",") + "\nonly,two\n"

	_, err := Read(strings.NewReader(csv))
	require.Error(t, err)
}

func TestWrite_RoundTrip(t *testing.T) {
	columns := append(append([]string{}, SchemaColumns...), DerivedColumns...)
	columns = append(columns, "scraped_at")

	csv := buildCSV(t, columns, []map[string]string{
		{
			"name":             "Science Fair",
			"category":         "Competitions",
			"stem_fields":      "Biology; Chemistry",
			"category_tier1":   "Competitions",
			"stem_field_tier1": "Life Sciences",
			"scraped_at":       "2026-02-01",
		},
		{
			"name":       "Astronomy Night",
			"category":   "Events",
			"scraped_at": "2026-02-02",
		},
	})

	c, err := Read(strings.NewReader(csv))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))

	again, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, c.Len(), again.Len())

	assert.Equal(t, c.Resources[0], again.Resources[0])
	assert.Equal(t, c.Resources[1], again.Resources[1])

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	fields := strings.Split(header, ",")
	require.Len(t, fields, len(SchemaColumns)+len(DerivedColumns)+1)
	assert.Equal(t, "name", fields[0])
	assert.Equal(t, "category_tier1", fields[len(SchemaColumns)])
	assert.Equal(t, "scraped_at", fields[len(fields)-1])
}

func TestDistinctValues_FirstAppearanceOrder(t *testing.T) {
	columns := append(append([]string{}, SchemaColumns...), DerivedColumns...)

	csv := buildCSV(t, columns, []map[string]string{
		{"name": "a", "stem_field_tier1": "Engineering", "category_tier1": "Programs"},
		{"name": "b", "stem_field_tier1": "Computer Science", "category_tier1": "Competitions"},
		{"name": "c", "stem_field_tier1": "Engineering", "category_tier1": "Programs"},
		{"name": "d", "stem_field_tier1": "", "category_tier1": "Events"},
		{"name": "e", "stem_field_tier1": "Mathematics", "category_tier1": "Programs"},
	})

	c, err := Read(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"Engineering", "Computer Science", "Mathematics"}, c.DistinctStemFields())
	assert.Equal(t, []string{"Programs", "Competitions", "Events"}, c.DistinctCategories())
}

func TestDistinctValues_RawColumnFallback(t *testing.T) {
	// Catalogs that never went through repair have no tier-1 columns; the
	// raw category and stem_fields values stand in.
	csv := buildCSV(t, SchemaColumns, []map[string]string{
		{"name": "a", "category": "Clubs", "stem_fields": "Robotics"},
		{"name": "b", "category": "Camps", "stem_fields": "Biology"},
	})

	c, err := Read(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"Robotics", "Biology"}, c.DistinctStemFields())
	assert.Equal(t, []string{"Clubs", "Camps"}, c.DistinctCategories())
}
