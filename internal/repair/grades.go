package repair

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	gradeWordPattern = regexp.MustCompile(`\bGRADES?\b`)
	ordinalPattern   = regexp.MustCompile(`(\d)(?:TH|ST|ND|RD)\b`)
)

// Keyword phrases map straight to a canonical band before any numeric
// parsing. Ordered, first match wins. "UER" is a known error value from an
// earlier cleaning tool that must not leak through.
var gradeKeywords = []struct {
	phrase    string
	canonical string
}{
	{"ELEMENTARY", "K-5"},
	{"MIDDLE SCHOOL", "6-8"},
	{"HIGH SCHOOL", "9-12"},
	{"JUNIOR HIGH", "6-8"},
	{"COLLEGE", "12+"},
	{"UNIVERSITY", "12+"},
	{"UNDERGRADUATE", "12+"},
	{"ALUMNI", "12+"},
	{"ALL GRADES", "K-12"},
	{"ALL", "K-12"},
	{"UER", "K-12"},
}

var monthAbbreviations = []string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// StandardizeGrade normalizes a raw target_grade string to a canonical band.
// Ordinal suffixes are stripped only when attached to a digit and the words
// "grade"/"grades" are removed wherever they appear, so "9th-12th Grade",
// "grades 9-12" and "High School" all land on "9-12". A missing value
// defaults to "K-12".
func StandardizeGrade(value string) string {
	grade := strings.ToUpper(strings.TrimSpace(value))
	if grade == "" {
		return "K-12"
	}

	grade = gradeWordPattern.ReplaceAllString(grade, "")
	grade = ordinalPattern.ReplaceAllString(grade, "$1")
	grade = strings.ReplaceAll(grade, "PRE-K", "PREK")
	grade = strings.Join(strings.Fields(grade), " ")

	for _, kw := range gradeKeywords {
		if strings.Contains(grade, kw.phrase) {
			return kw.canonical
		}
	}

	// Spreadsheet date artifacts: "8-JUN" was "8-June", originally grade 8.
	for _, month := range monthAbbreviations {
		if strings.Contains(grade, month) {
			head, _, _ := strings.Cut(grade, "-")
			if isDigits(head) {
				return head
			}
			break
		}
	}

	if strings.Contains(grade, "-") {
		if parts := strings.Split(grade, "-"); len(parts) == 2 {
			return bandRange(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), grade)
		}
	}

	switch grade {
	case "K", "KINDERGARTEN":
		return "K"
	case "PREK":
		return "PreK"
	}
	if n, err := strconv.Atoi(grade); err == nil {
		if n >= 1 && n <= 12 {
			return strconv.Itoa(n)
		}
		if n > 12 {
			return "12+"
		}
	}

	return grade
}

// bandRange buckets a parsed start-end pair into the canonical band set.
// PreK counts as -1 and K as 0 so the thresholds read in grade numbers.
func bandRange(startStr, endStr, cleaned string) string {
	var start int
	switch {
	case strings.HasPrefix(startStr, "PREK"):
		start = -1
	case startStr == "K":
		start = 0
	case isDigits(startStr):
		start, _ = strconv.Atoi(startStr)
	default:
		return cleaned
	}

	if !isDigits(endStr) {
		return cleaned
	}
	end, _ := strconv.Atoi(endStr)

	switch {
	case start <= 0 && end <= 2:
		return "PreK-2"
	case start <= 0 && end <= 5:
		return "K-5"
	case start <= 0 && end == 8:
		return "K-8"
	case start <= 0 && end >= 9:
		return "K-12"
	case start <= 5 && end <= 5:
		return "K-5"
	case start <= 5 && end == 8:
		return "K-8"
	case start <= 5 && end >= 9:
		return "K-12"
	case start >= 6 && end == 8:
		return "6-8"
	case start >= 6 && start <= 7 && end <= 10:
		return "6-8"
	case start >= 6 && start <= 8 && end >= 11:
		return fmt.Sprintf("%d-12", start)
	case start == 9 && end >= 10:
		return "9-12"
	case start == 10 && end >= 10:
		return "10-12"
	case start == 11 && end >= 10:
		return "11-12"
	case start >= 12:
		return "12+"
	}

	return fmt.Sprintf("%s-%d", displayBound(startStr), end)
}

func displayBound(s string) string {
	if strings.HasPrefix(s, "PREK") {
		return "PreK"
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseGradeRange resolves a canonical grade string to its inclusive grade
// span, with K as grade 0. ok is false for open-ended or unparseable values
// such as "12+" or "PreK-2".
func ParseGradeRange(value string) (low, high int, ok bool) {
	grade := strings.TrimSpace(value)
	if grade == "" || grade == "N/A" {
		return 0, 0, false
	}

	if strings.HasPrefix(grade, "K") {
		if !strings.Contains(grade, "-") {
			return 0, 0, true
		}
		parts := strings.SplitN(grade, "-", 2)
		high, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, false
		}
		return 0, high, true
	}

	if strings.Contains(grade, "-") {
		parts := strings.SplitN(grade, "-", 2)
		low, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		high, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return low, high, true
	}

	n, err := strconv.Atoi(grade)
	if err != nil {
		return 0, 0, false
	}
	return n, n, true
}

// IsGradeAppropriate reports whether a resource targeting target suits a
// student in studentGrade, allowing tolerance grades of slack on either
// side. Unparseable targets are included rather than filtered out.
func IsGradeAppropriate(studentGrade int, target string, tolerance int) bool {
	low, high, ok := ParseGradeRange(target)
	if !ok {
		return true
	}
	if studentGrade >= low && studentGrade <= high {
		return true
	}
	return abs(studentGrade-low) <= tolerance || abs(studentGrade-high) <= tolerance
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
