package ml

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVectorizer(t *testing.T) *Vectorizer {
	t.Helper()

	vocab := map[string]int{
		"machine":          0,
		"learning":         1,
		"python":           2,
		"machine learning": 3,
		"robotics":         4,
	}
	idf := []float64{1.2, 1.5, 2.0, 3.0, 2.5}

	v, err := NewVectorizer(vocab, idf, 1, 2, true, []string{"and", "in", "the"})
	require.NoError(t, err)
	return v
}

func TestVectorizer_Transform(t *testing.T) {
	v := testVectorizer(t)

	vec := v.Transform("Machine Learning and Python")

	// Unigrams plus the known bigram should be present; robotics absent.
	assert.Contains(t, vec, 0)
	assert.Contains(t, vec, 1)
	assert.Contains(t, vec, 2)
	assert.Contains(t, vec, 3)
	assert.NotContains(t, vec, 4)

	// Output is L2-normalized.
	assert.InDelta(t, 1.0, vec.Norm(), 1e-9)

	// The bigram carries the highest idf, so it must dominate.
	assert.Greater(t, vec[3], vec[0])
	assert.Greater(t, vec[3], vec[1])
}

func TestVectorizer_Transform_NoVocabularyHit(t *testing.T) {
	v := testVectorizer(t)

	vec := v.Transform("chemistry biology")
	assert.Empty(t, vec)
	assert.Equal(t, 0.0, vec.Norm())
}

func TestVectorizer_Tokenize(t *testing.T) {
	v := testVectorizer(t)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "lowercases and drops stop words",
			text:     "Machine Learning in Python",
			expected: []string{"machine", "learning", "python"},
		},
		{
			name:     "drops single-character tokens",
			text:     "AI & ML for K-12",
			expected: []string{"ai", "ml", "for", "12"},
		},
		{
			name:     "empty input",
			text:     "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := v.Tokenize(tt.text)
			if len(tt.expected) == 0 {
				assert.Empty(t, tokens)
				return
			}
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestNewVectorizer_Invalid(t *testing.T) {
	_, err := NewVectorizer(map[string]int{}, nil, 1, 2, true, nil)
	assert.Error(t, err)

	_, err = NewVectorizer(map[string]int{"a": 0}, []float64{1.0, 2.0}, 1, 2, true, nil)
	assert.Error(t, err)

	_, err = NewVectorizer(map[string]int{"a": 5}, []float64{1.0}, 1, 2, true, nil)
	assert.Error(t, err)

	_, err = NewVectorizer(map[string]int{"a": 0}, []float64{1.0}, 2, 1, true, nil)
	assert.Error(t, err)
}

func testMatrix(t *testing.T) *CSRMatrix {
	t.Helper()

	// Row 0 is a machine-learning document, row 1 a robotics document,
	// row 2 has no terms at all.
	m := &CSRMatrix{
		RowCount: 3,
		ColCount: 5,
		Indptr:   []int{0, 3, 4, 4},
		Indices:  []int{0, 1, 3, 4},
		Data:     []float64{1.2, 1.5, 3.0, 2.5},
	}
	require.NoError(t, m.Validate())
	return m
}

func TestCSRMatrix_CosineSimilarities(t *testing.T) {
	v := testVectorizer(t)
	m := testMatrix(t)

	q := v.Transform("machine learning")
	sims := m.CosineSimilarities(q)
	require.Len(t, sims, 3)

	// Row 0 points in exactly the query's direction.
	assert.InDelta(t, 1.0, sims[0], 1e-9)
	assert.Equal(t, 0.0, sims[1])
	assert.Equal(t, 0.0, sims[2])
}

func TestCSRMatrix_CosineSimilarities_EmptyQuery(t *testing.T) {
	v := testVectorizer(t)
	m := testMatrix(t)

	sims := m.CosineSimilarities(v.Transform("unrelated words only"))
	for i, s := range sims {
		assert.Equal(t, 0.0, s, "row %d", i)
	}
}

func TestCSRMatrix_Validate(t *testing.T) {
	tests := []struct {
		name   string
		matrix CSRMatrix
	}{
		{
			name:   "indptr length mismatch",
			matrix: CSRMatrix{RowCount: 2, ColCount: 3, Indptr: []int{0, 1}, Indices: []int{0}, Data: []float64{1}},
		},
		{
			name:   "data length mismatch",
			matrix: CSRMatrix{RowCount: 1, ColCount: 3, Indptr: []int{0, 2}, Indices: []int{0, 1}, Data: []float64{1}},
		},
		{
			name:   "column out of range",
			matrix: CSRMatrix{RowCount: 1, ColCount: 2, Indptr: []int{0, 1}, Indices: []int{5}, Data: []float64{1}},
		},
		{
			name:   "decreasing indptr",
			matrix: CSRMatrix{RowCount: 2, ColCount: 2, Indptr: []int{0, 1, 0}, Indices: []int{0}, Data: []float64{1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.matrix.Validate())
		})
	}
}

func BenchmarkCosineSimilarities(b *testing.B) {
	vocab := make(map[string]int)
	idf := make([]float64, 500)
	queryTerms := make([]string, 0, 20)
	for i := 0; i < 500; i++ {
		term := fmt.Sprintf("term%03d", i)
		vocab[term] = i
		idf[i] = 1.0 + float64(i%7)
		if i%25 == 0 {
			queryTerms = append(queryTerms, term)
		}
	}
	v, err := NewVectorizer(vocab, idf, 1, 2, true, nil)
	if err != nil {
		b.Fatal(err)
	}

	// 1000 rows, 20 terms each.
	m := &CSRMatrix{RowCount: 1000, ColCount: 500}
	m.Indptr = append(m.Indptr, 0)
	for r := 0; r < 1000; r++ {
		for c := 0; c < 20; c++ {
			m.Indices = append(m.Indices, (r*13+c*29)%500)
			m.Data = append(m.Data, 0.5+float64(c%5))
		}
		m.Indptr = append(m.Indptr, len(m.Indices))
	}

	q := v.Transform(strings.Join(queryTerms, " "))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.CosineSimilarities(q)
	}
}
