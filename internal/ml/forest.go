package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ForestConfig controls random-forest training. Zero values fall back to
// sensible defaults in TrainForest.
type ForestConfig struct {
	Trees          int
	MaxDepth       int // 0 grows trees until leaves are pure
	MinSamplesLeaf int
	Seed           int64
}

// RandomForest is a bagged ensemble of CART classification trees over
// numeric feature vectors (label-encoded categoricals included). Classes are
// weighted inversely to their frequency, so rare labels are not drowned out
// by the majority class.
type RandomForest struct {
	trees       []*treeNode
	numClasses  int
	numFeatures int
	classWeight []float64
}

type treeNode struct {
	leaf      bool
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	// distribution holds normalized weighted class frequencies at a leaf.
	distribution []float64
}

type treeTrainer struct {
	x                [][]float64
	y                []int
	weights          []float64
	numClasses       int
	maxDepth         int
	minSamplesLeaf   int
	featuresPerSplit int
	rng              *rand.Rand
}

// TrainForest fits a forest on x (rows of features) and y (class indices in
// [0, numClasses)). Training is deterministic for a fixed seed.
func TrainForest(x [][]float64, y []int, numClasses int, cfg ForestConfig) (*RandomForest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("forest training requires at least one sample")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature rows %d do not match labels %d", len(x), len(y))
	}
	if numClasses < 1 {
		return nil, fmt.Errorf("invalid class count %d", numClasses)
	}
	for i, label := range y {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("label %d at row %d out of range [0, %d)", label, i, numClasses)
		}
	}

	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = 1
	}

	numFeatures := len(x[0])
	for i, row := range x {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), numFeatures)
		}
	}

	// Balanced class weights: n / (classes * count).
	counts := make([]float64, numClasses)
	for _, label := range y {
		counts[label]++
	}
	present := 0
	for _, c := range counts {
		if c > 0 {
			present++
		}
	}
	classWeight := make([]float64, numClasses)
	for c, n := range counts {
		if n > 0 {
			classWeight[c] = float64(len(y)) / (float64(present) * n)
		}
	}

	sampleWeights := make([]float64, len(y))
	for i, label := range y {
		sampleWeights[i] = classWeight[label]
	}

	featuresPerSplit := int(math.Sqrt(float64(numFeatures)))
	if featuresPerSplit < 1 {
		featuresPerSplit = 1
	}

	forest := &RandomForest{
		trees:       make([]*treeNode, cfg.Trees),
		numClasses:  numClasses,
		numFeatures: numFeatures,
		classWeight: classWeight,
	}

	for t := 0; t < cfg.Trees; t++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))

		// Bootstrap sample.
		indices := make([]int, len(x))
		for i := range indices {
			indices[i] = rng.Intn(len(x))
		}

		trainer := &treeTrainer{
			x:                x,
			y:                y,
			weights:          sampleWeights,
			numClasses:       numClasses,
			maxDepth:         cfg.MaxDepth,
			minSamplesLeaf:   cfg.MinSamplesLeaf,
			featuresPerSplit: featuresPerSplit,
			rng:              rng,
		}
		forest.trees[t] = trainer.build(indices, 0)
	}

	return forest, nil
}

// Predict returns the majority class for x and the ensemble's confidence:
// the mean leaf probability of the winning class across all trees.
func (f *RandomForest) Predict(x []float64) (int, float64, error) {
	if len(x) != f.numFeatures {
		return 0, 0, fmt.Errorf("sample has %d features, forest expects %d", len(x), f.numFeatures)
	}

	probs := make([]float64, f.numClasses)
	for _, tree := range f.trees {
		leaf := tree.traverse(x)
		for c, p := range leaf.distribution {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.trees))
	}

	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return best, probs[best], nil
}

func (n *treeNode) traverse(x []float64) *treeNode {
	node := n
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node
}

func (t *treeTrainer) build(indices []int, depth int) *treeNode {
	dist, impurity := t.classDistribution(indices)

	if impurity == 0 || len(indices) < 2*t.minSamplesLeaf ||
		(t.maxDepth > 0 && depth >= t.maxDepth) {
		return &treeNode{leaf: true, distribution: dist}
	}

	feature, threshold, ok := t.bestSplit(indices, impurity)
	if !ok {
		return &treeNode{leaf: true, distribution: dist}
	}

	var left, right []int
	for _, i := range indices {
		if t.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < t.minSamplesLeaf || len(right) < t.minSamplesLeaf {
		return &treeNode{leaf: true, distribution: dist}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.build(left, depth+1),
		right:     t.build(right, depth+1),
	}
}

// classDistribution returns the normalized weighted class frequencies over
// indices and their gini impurity.
func (t *treeTrainer) classDistribution(indices []int) ([]float64, float64) {
	dist := make([]float64, t.numClasses)
	var total float64
	for _, i := range indices {
		dist[t.y[i]] += t.weights[i]
		total += t.weights[i]
	}

	impurity := 1.0
	if total > 0 {
		for c := range dist {
			dist[c] /= total
			impurity -= dist[c] * dist[c]
		}
	}
	return dist, impurity
}

// bestSplit searches a random feature subset for the threshold with the
// lowest weighted gini impurity. Returns ok=false when no split improves on
// the parent.
func (t *treeTrainer) bestSplit(indices []int, parentImpurity float64) (int, float64, bool) {
	perm := t.rng.Perm(t.featureCount())
	candidates := perm[:t.featuresPerSplit]

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := parentImpurity

	for _, f := range candidates {
		values := make([]float64, 0, len(indices))
		for _, i := range indices {
			values = append(values, t.x[i][f])
		}
		sort.Float64s(values)

		for vi := 1; vi < len(values); vi++ {
			if values[vi] == values[vi-1] {
				continue
			}
			threshold := (values[vi] + values[vi-1]) / 2

			impurity := t.splitImpurity(indices, f, threshold)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (t *treeTrainer) splitImpurity(indices []int, feature int, threshold float64) float64 {
	leftDist := make([]float64, t.numClasses)
	rightDist := make([]float64, t.numClasses)
	var leftTotal, rightTotal float64

	for _, i := range indices {
		if t.x[i][feature] <= threshold {
			leftDist[t.y[i]] += t.weights[i]
			leftTotal += t.weights[i]
		} else {
			rightDist[t.y[i]] += t.weights[i]
			rightTotal += t.weights[i]
		}
	}

	total := leftTotal + rightTotal
	if leftTotal == 0 || rightTotal == 0 || total == 0 {
		return math.Inf(1)
	}

	gini := func(dist []float64, sum float64) float64 {
		g := 1.0
		for _, w := range dist {
			p := w / sum
			g -= p * p
		}
		return g
	}

	return (leftTotal/total)*gini(leftDist, leftTotal) + (rightTotal/total)*gini(rightDist, rightTotal)
}

func (t *treeTrainer) featureCount() int {
	return len(t.x[0])
}
