package ml

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ClusterModel holds the fitted centroids of one K-Means dimension. Only
// inference happens here; training is an upstream concern.
type ClusterModel struct {
	Features  []string    `json:"features"`
	Centroids [][]float64 `json:"centroids"`
}

func (m *ClusterModel) Validate() error {
	if len(m.Centroids) == 0 {
		return fmt.Errorf("cluster model has no centroids")
	}
	dims := len(m.Centroids[0])
	if dims == 0 {
		return fmt.Errorf("cluster model has zero-dimensional centroids")
	}
	for i, c := range m.Centroids {
		if len(c) != dims {
			return fmt.Errorf("centroid %d has %d dimensions, expected %d", i, len(c), dims)
		}
	}
	return nil
}

// K returns the number of clusters.
func (m *ClusterModel) K() int {
	return len(m.Centroids)
}

// Dimensions returns the feature-space width of the centroids.
func (m *ClusterModel) Dimensions() int {
	if len(m.Centroids) == 0 {
		return 0
	}
	return len(m.Centroids[0])
}

// Distances returns the euclidean distance from v to every centroid.
func (m *ClusterModel) Distances(v []float64) ([]float64, error) {
	if len(v) != m.Dimensions() {
		return nil, fmt.Errorf("vector has %d dimensions, centroids have %d", len(v), m.Dimensions())
	}

	dists := make([]float64, len(m.Centroids))
	for i, c := range m.Centroids {
		dists[i] = floats.Distance(v, c, 2)
	}
	return dists, nil
}

// NearestClusters returns the indices of the k centroids closest to v,
// ordered by ascending distance. Equal distances keep ascending cluster
// order. k larger than the cluster count returns all clusters.
func (m *ClusterModel) NearestClusters(v []float64, k int) ([]int, error) {
	dists, err := m.Distances(v)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(dists))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	return order[:k], nil
}
