package services

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/ml"
)

// rankedResource pairs a catalog row index with its cosine similarity to
// the student's interest text.
type rankedResource struct {
	Index int
	Score float64
}

// rankCandidates scores every candidate row against the interest text and
// returns at most topN results with similarity at or above minSimilarity,
// sorted descending. Ties keep ascending catalog order via the stable sort.
//
// Without interest text, or when the text artifacts are unavailable,
// ranking degrades to the first topN candidates in catalog order with zero
// scores rather than failing the request.
func rankCandidates(vectorizer *ml.Vectorizer, matrix *ml.CSRMatrix, interestText string, candidates candidateSet, minSimilarity float64, topN int, logger *logrus.Logger) []rankedResource {
	indices := candidates.sorted()

	if strings.TrimSpace(interestText) == "" || vectorizer == nil || matrix == nil {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"candidates":     len(indices),
				"have_text":      strings.TrimSpace(interestText) != "",
				"have_artifacts": vectorizer != nil && matrix != nil,
			}).Warn("Similarity ranking unavailable, returning unranked candidates")
		}
		if len(indices) > topN {
			indices = indices[:topN]
		}
		ranked := make([]rankedResource, len(indices))
		for i, idx := range indices {
			ranked[i] = rankedResource{Index: idx}
		}
		return ranked
	}

	query := vectorizer.Transform(interestText)
	qNorm := query.Norm()

	ranked := make([]rankedResource, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= matrix.RowCount {
			continue
		}
		var score float64
		if rNorm := matrix.RowNorm(idx); qNorm > 0 && rNorm > 0 {
			score = matrix.RowDot(idx, query) / (qNorm * rNorm)
		}
		if score >= minSimilarity {
			ranked = append(ranked, rankedResource{Index: idx, Score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
