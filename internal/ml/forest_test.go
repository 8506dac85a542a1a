package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forestFixture builds a dataset where the class is fully determined by the
// first feature and the second feature is noise.
func forestFixture() ([][]float64, []int) {
	var x [][]float64
	var y []int
	for i := 0; i < 40; i++ {
		class := i % 2
		x = append(x, []float64{float64(class), float64(i % 7)})
		y = append(y, class)
	}
	return x, y
}

func TestTrainForest_LearnsSeparableClasses(t *testing.T) {
	x, y := forestFixture()

	forest, err := TrainForest(x, y, 2, ForestConfig{Trees: 25, Seed: 7})
	require.NoError(t, err)

	for _, sample := range []struct {
		features []float64
		expected int
	}{
		{[]float64{0, 3}, 0},
		{[]float64{1, 5}, 1},
	} {
		class, confidence, err := forest.Predict(sample.features)
		require.NoError(t, err)
		assert.Equal(t, sample.expected, class)
		assert.Greater(t, confidence, 0.7)
		assert.LessOrEqual(t, confidence, 1.0)
	}
}

func TestTrainForest_Deterministic(t *testing.T) {
	x, y := forestFixture()
	cfg := ForestConfig{Trees: 15, Seed: 42}

	first, err := TrainForest(x, y, 2, cfg)
	require.NoError(t, err)
	second, err := TrainForest(x, y, 2, cfg)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		sample := []float64{float64(i % 2), float64(i)}

		c1, p1, err := first.Predict(sample)
		require.NoError(t, err)
		c2, p2, err := second.Predict(sample)
		require.NoError(t, err)

		assert.Equal(t, c1, c2)
		assert.InDelta(t, p1, p2, 1e-12)
	}
}

func TestTrainForest_SingleClass(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	y := []int{1, 1, 1}

	forest, err := TrainForest(x, y, 2, ForestConfig{Trees: 5, Seed: 1})
	require.NoError(t, err)

	class, confidence, err := forest.Predict([]float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	assert.InDelta(t, 1.0, confidence, 1e-9)
}

func TestTrainForest_BalancedWeightsFavorRareClass(t *testing.T) {
	// 36 majority samples against 4 minority samples, separable on the
	// first feature. Balanced weighting must still learn the minority side.
	var x [][]float64
	var y []int
	for i := 0; i < 36; i++ {
		x = append(x, []float64{0, float64(i % 5)})
		y = append(y, 0)
	}
	for i := 0; i < 4; i++ {
		x = append(x, []float64{1, float64(i)})
		y = append(y, 1)
	}

	forest, err := TrainForest(x, y, 2, ForestConfig{Trees: 30, Seed: 3})
	require.NoError(t, err)

	class, _, err := forest.Predict([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
}

func TestTrainForest_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		x          [][]float64
		y          []int
		numClasses int
	}{
		{name: "empty", x: nil, y: nil, numClasses: 2},
		{name: "length mismatch", x: [][]float64{{1}}, y: []int{0, 1}, numClasses: 2},
		{name: "label out of range", x: [][]float64{{1}}, y: []int{5}, numClasses: 2},
		{name: "ragged rows", x: [][]float64{{1, 2}, {1}}, y: []int{0, 1}, numClasses: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TrainForest(tt.x, tt.y, tt.numClasses, ForestConfig{Trees: 3, Seed: 1})
			assert.Error(t, err)
		})
	}
}

func TestRandomForest_Predict_DimensionMismatch(t *testing.T) {
	x, y := forestFixture()
	forest, err := TrainForest(x, y, 2, ForestConfig{Trees: 3, Seed: 1})
	require.NoError(t, err)

	_, _, err = forest.Predict([]float64{1})
	assert.Error(t, err)
}
