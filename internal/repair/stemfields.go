package repair

import "strings"

// Canonical tier-1 STEM field palette. Consolidation always lands on one of
// these twelve values.
const (
	stemMultidisciplinary = "Multidisciplinary STEM"
	stemOther             = "Other STEM"
)

// stemFieldBucket pairs a canonical field with the keyword list that pulls
// free-text variants into it. Order matters twice: buckets are tried top to
// bottom and keywords left to right, first match wins.
type stemFieldBucket struct {
	canonical string
	keywords  []string
}

var stemFieldBuckets = []stemFieldBucket{
	{"Computer Science", []string{
		"computer science", "programming", "coding", "software",
		"cybersecurity", "data science", "artificial intelligence",
		"machine learning", "game development", "web development",
		"app development", "robotics programming",
	}},
	{"Engineering", []string{
		"engineering", "mechanical engineering", "civil engineering",
		"electrical engineering", "chemical engineering", "biomedical engineering",
		"aerospace engineering", "environmental engineering", "industrial engineering",
		"systems engineering", "robotics",
	}},
	{"Mathematics", []string{
		"mathematics", "math", "statistics", "algebra", "calculus",
		"geometry", "applied mathematics", "discrete mathematics",
	}},
	{"Physics", []string{
		"physics", "astrophysics", "quantum physics", "applied physics",
	}},
	{"Chemistry", []string{
		"chemistry", "biochemistry", "organic chemistry", "inorganic chemistry",
	}},
	{"Earth Sciences", []string{
		"earth science", "geology", "environmental science",
		"atmospheric science", "oceanography", "climate science",
	}},
	{"Biology", []string{
		"biology", "molecular biology", "cell biology", "genetics",
		"microbiology", "ecology", "botany", "zoology",
	}},
	{"Health Sciences", []string{
		"health science", "medicine", "public health", "nursing",
		"neuroscience", "anatomy", "physiology",
	}},
	{"Technology", []string{
		"technology", "information technology", "digital technology",
	}},
	{"Agriculture", []string{
		"agriculture", "agricultural science", "food science",
	}},
	{stemMultidisciplinary, []string{
		"stem", "general stem", "multidisciplinary",
	}},
	{stemOther, nil},
}

// ConsolidateStemField maps a raw tier-1 STEM field value onto the canonical
// palette. Multi-value strings keep only their first entry; a missing value
// counts as multidisciplinary rather than unknown.
func ConsolidateStemField(value string) string {
	primary := strings.TrimSpace(value)
	if primary == "" {
		return stemMultidisciplinary
	}

	if i := strings.IndexAny(primary, ";,"); i >= 0 {
		primary = strings.TrimSpace(primary[:i])
	}

	for _, bucket := range stemFieldBuckets {
		if primary == bucket.canonical {
			return bucket.canonical
		}
	}

	lower := strings.ToLower(primary)
	for _, bucket := range stemFieldBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(lower, keyword) {
				return bucket.canonical
			}
		}
	}

	if strings.Contains(lower, "other") {
		return stemMultidisciplinary
	}
	return stemOther
}
