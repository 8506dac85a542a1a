package services

import (
	"sort"
	"strings"

	"github.com/stemlight/compass/internal/artifacts"
	"github.com/stemlight/compass/internal/ml"
	"github.com/stemlight/compass/pkg/models"
)

// candidateSet is a set of catalog row indices.
type candidateSet map[int]struct{}

func universeSet(n int) candidateSet {
	set := make(candidateSet, n)
	for i := 0; i < n; i++ {
		set[i] = struct{}{}
	}
	return set
}

func (s candidateSet) add(i int) {
	s[i] = struct{}{}
}

func (s candidateSet) contains(i int) bool {
	_, ok := s[i]
	return ok
}

func (s candidateSet) union(o candidateSet) candidateSet {
	out := make(candidateSet, len(s)+len(o))
	for i := range s {
		out[i] = struct{}{}
	}
	for i := range o {
		out[i] = struct{}{}
	}
	return out
}

func (s candidateSet) intersect(o candidateSet) candidateSet {
	small, large := s, o
	if len(o) < len(s) {
		small, large = o, s
	}
	out := make(candidateSet)
	for i := range small {
		if large.contains(i) {
			out[i] = struct{}{}
		}
	}
	return out
}

// sorted returns the indices in ascending order, the deterministic iteration
// order every downstream stage relies on.
func (s candidateSet) sorted() []int {
	indices := make([]int, 0, len(s))
	for i := range s {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// clusterCandidates selects the topClusters centroids nearest to the encoded
// profile and unions the catalog rows assigned to any of them. Using several
// clusters instead of the single nearest one keeps recall up for profiles
// sitting near a cluster boundary; ranking restores precision later.
func clusterCandidates(artifact *artifacts.ClusterArtifact, vec []float64, topClusters int) (candidateSet, error) {
	nearest, err := artifact.Model.NearestClusters(vec, topClusters)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]struct{}, len(nearest))
	for _, cluster := range nearest {
		wanted[cluster] = struct{}{}
	}

	set := make(candidateSet)
	for idx, cluster := range artifact.Assignments {
		if _, ok := wanted[cluster]; ok {
			set.add(idx)
		}
	}
	return set, nil
}

// stemInterestCandidates matches rows against a synthetic query joining the
// interest labels. The floor is strict: similarity must exceed it.
func stemInterestCandidates(vectorizer *ml.Vectorizer, matrix *ml.CSRMatrix, stemFields []string, floor float64) candidateSet {
	set := make(candidateSet)
	if len(stemFields) == 0 || vectorizer == nil || matrix == nil {
		return set
	}

	query := strings.Join(stemFields, " ")
	sims := matrix.CosineSimilarities(vectorizer.Transform(query))
	for idx, sim := range sims {
		if sim > floor {
			set.add(idx)
		}
	}
	return set
}

// formatCandidates selects rows whose category contains any preferred label,
// case-insensitively. Preferences are treated as substrings so "Course"
// matches "Online Course".
func formatCandidates(resources []models.Resource, preferences []string) candidateSet {
	set := make(candidateSet)
	if len(preferences) == 0 {
		return set
	}

	lowered := make([]string, len(preferences))
	for i, pref := range preferences {
		lowered[i] = strings.ToLower(pref)
	}

	for idx := range resources {
		category := strings.ToLower(resources[idx].Tier1Category())
		for _, pref := range lowered {
			if strings.Contains(category, pref) {
				set.add(idx)
				break
			}
		}
	}
	return set
}
