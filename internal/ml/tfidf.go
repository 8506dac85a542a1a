package ml

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gonum.org/v1/gonum/floats"
)

// wordRegex matches runs of two or more word characters, matching the
// tokenization the vectorizer was fit with.
var wordRegex = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_]+`)

// Vectorizer reproduces the transform side of a pre-fit TF-IDF vectorizer:
// tokenize, drop stop words, expand n-grams, count vocabulary terms, weight
// by idf and L2-normalize. The fit parameters travel in the artifact bundle.
type Vectorizer struct {
	Vocabulary map[string]int
	IDF        []float64
	NgramMin   int
	NgramMax   int
	Lowercase  bool

	stopWords map[string]struct{}
}

func NewVectorizer(vocabulary map[string]int, idf []float64, ngramMin, ngramMax int, lowercase bool, stopWords []string) (*Vectorizer, error) {
	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer vocabulary is empty")
	}
	if len(idf) != len(vocabulary) {
		return nil, fmt.Errorf("idf length %d does not match vocabulary size %d", len(idf), len(vocabulary))
	}
	for term, col := range vocabulary {
		if col < 0 || col >= len(idf) {
			return nil, fmt.Errorf("vocabulary term %q maps to out-of-range column %d", term, col)
		}
	}
	if ngramMin < 1 || ngramMax < ngramMin {
		return nil, fmt.Errorf("invalid ngram range (%d, %d)", ngramMin, ngramMax)
	}

	stops := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stops[strings.ToLower(w)] = struct{}{}
	}

	return &Vectorizer{
		Vocabulary: vocabulary,
		IDF:        idf,
		NgramMin:   ngramMin,
		NgramMax:   ngramMax,
		Lowercase:  lowercase,
		stopWords:  stops,
	}, nil
}

// Dimensions returns the column count of vectors the transform emits.
func (v *Vectorizer) Dimensions() int {
	return len(v.IDF)
}

// Tokenize splits text into word tokens with stop words removed.
func (v *Vectorizer) Tokenize(text string) []string {
	text = norm.NFC.String(text)
	if v.Lowercase {
		text = strings.ToLower(text)
	}

	raw := wordRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, stop := v.stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Transform vectorizes text into a sparse column->weight map: raw term
// counts over the vocabulary, idf weighting, then L2 normalization.
func (v *Vectorizer) Transform(text string) SparseVector {
	tokens := v.Tokenize(text)

	vec := make(SparseVector)
	for n := v.NgramMin; n <= v.NgramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			col, ok := v.Vocabulary[term]
			if !ok {
				continue
			}
			vec[col] += v.IDF[col]
		}
	}

	vec.normalize()
	return vec
}

// SparseVector maps matrix column to weight.
type SparseVector map[int]float64

func (sv SparseVector) normalize() {
	var sumsq float64
	for _, w := range sv {
		sumsq += w * w
	}
	if sumsq == 0 {
		return
	}
	n := math.Sqrt(sumsq)
	for col, w := range sv {
		sv[col] = w / n
	}
}

// Norm returns the L2 norm of the vector.
func (sv SparseVector) Norm() float64 {
	var sumsq float64
	for _, w := range sv {
		sumsq += w * w
	}
	return math.Sqrt(sumsq)
}

// CSRMatrix is a compressed sparse row document-term matrix, row-aligned
// with the catalog it was built from.
type CSRMatrix struct {
	RowCount int       `json:"rows"`
	ColCount int       `json:"cols"`
	Indptr   []int     `json:"indptr"`
	Indices  []int     `json:"indices"`
	Data     []float64 `json:"data"`

	rowNorms []float64
}

func (m *CSRMatrix) Validate() error {
	if m.RowCount < 0 || m.ColCount <= 0 {
		return fmt.Errorf("matrix has invalid shape %dx%d", m.RowCount, m.ColCount)
	}
	if len(m.Indptr) != m.RowCount+1 {
		return fmt.Errorf("indptr length %d does not match row count %d", len(m.Indptr), m.RowCount)
	}
	nnz := m.Indptr[m.RowCount]
	if len(m.Indices) != nnz || len(m.Data) != nnz {
		return fmt.Errorf("matrix stores %d indices and %d values, indptr claims %d", len(m.Indices), len(m.Data), nnz)
	}
	for i := 1; i < len(m.Indptr); i++ {
		if m.Indptr[i] < m.Indptr[i-1] {
			return fmt.Errorf("indptr is not non-decreasing at row %d", i)
		}
	}
	for _, col := range m.Indices {
		if col < 0 || col >= m.ColCount {
			return fmt.Errorf("column index %d out of range [0, %d)", col, m.ColCount)
		}
	}
	return nil
}

// RowNorm returns the L2 norm of row i, computed once and memoized.
func (m *CSRMatrix) RowNorm(i int) float64 {
	if m.rowNorms == nil {
		m.rowNorms = make([]float64, m.RowCount)
		for r := 0; r < m.RowCount; r++ {
			m.rowNorms[r] = floats.Norm(m.Data[m.Indptr[r]:m.Indptr[r+1]], 2)
		}
	}
	return m.rowNorms[i]
}

// RowDot computes the dot product of row i with a sparse query vector.
func (m *CSRMatrix) RowDot(i int, q SparseVector) float64 {
	var dot float64
	for p := m.Indptr[i]; p < m.Indptr[i+1]; p++ {
		if w, ok := q[m.Indices[p]]; ok {
			dot += m.Data[p] * w
		}
	}
	return dot
}

// CosineSimilarities computes the cosine similarity of q against every row.
// Zero rows or a zero query yield similarity 0.
func (m *CSRMatrix) CosineSimilarities(q SparseVector) []float64 {
	sims := make([]float64, m.RowCount)
	qNorm := q.Norm()
	if qNorm == 0 {
		return sims
	}

	for i := 0; i < m.RowCount; i++ {
		rNorm := m.RowNorm(i)
		if rNorm == 0 {
			continue
		}
		sims[i] = m.RowDot(i, q) / (qNorm * rNorm)
	}
	return sims
}
