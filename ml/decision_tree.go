package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

type DecisionTree struct {
	MaxDepth        int
	MinSamplesSplit int
	// MaxFeatures bounds the candidate columns examined per split; 0 means all.
	MaxFeatures int

	features    []string
	numFeatures int
	nodes       []TreeNode
	rng         *rand.Rand
}

type TreeNode struct {
	FeatureIdx   int       `json:"feature_idx"`
	Threshold    float64   `json:"threshold"`
	LeftChild    int       `json:"left_child"`
	RightChild   int       `json:"right_child"`
	ClassLabel   int       `json:"class_label"`
	IsLeaf       bool      `json:"is_leaf"`
	Distribution []float64 `json:"distribution,omitempty"`
}

func NewDecisionTree(maxDepth int, featureNames []string) *DecisionTree {
	return &DecisionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: 2,
		features:        append([]string(nil), featureNames...),
	}
}

func (dt *DecisionTree) Train(features [][]float64, labels []int) error {
	return dt.fit(features, labels, rand.New(rand.NewSource(1)))
}

func (dt *DecisionTree) fit(features [][]float64, labels []int, rng *rand.Rand) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}
	for i, label := range labels {
		if label < 0 || label >= numClasses {
			return fmt.Errorf("row %d: label %d outside [0,%d)", i, label, numClasses)
		}
	}
	if len(dt.features) == 0 {
		dt.features = positionalNames(width)
	}
	if len(dt.features) != width {
		return fmt.Errorf("%w: %d names for %d columns", ErrSchemaMismatch, len(dt.features), width)
	}
	if dt.MinSamplesSplit < 2 {
		dt.MinSamplesSplit = 2
	}

	dt.rng = rng
	dt.numFeatures = width
	dt.nodes = nil
	dt.buildNode(features, labels, 0)
	dt.rng = nil
	return nil
}

func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	dist, err := dt.leafDistribution(features)
	if err != nil {
		return 0, 0, err
	}
	label := argmax(dist)
	return label, dist[label], nil
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	dist, err := dt.leafDistribution(features)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), dist...), nil
}

func (dt *DecisionTree) FeatureNames() []string {
	return append([]string(nil), dt.features...)
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return ErrNotTrained
	}
	return writeArtifact(path, &Artifact{
		Type:         TypeDecisionTree,
		FeatureNames: dt.features,
		Classes:      classes(),
		Params:       ForestParams{NumTrees: 1, MaxDepth: dt.MaxDepth, MinSamplesSplit: dt.MinSamplesSplit, MaxFeatures: dt.MaxFeatures},
		Trees:        [][]TreeNode{dt.nodes},
	})
}

func (dt *DecisionTree) Load(path string) error {
	artifact, err := readArtifact(path, TypeDecisionTree)
	if err != nil {
		return err
	}
	if len(artifact.Trees) != 1 {
		return fmt.Errorf("decision tree artifact holds %d trees", len(artifact.Trees))
	}
	return dt.restore(artifact.Trees[0], artifact.FeatureNames, artifact.Params)
}

func (dt *DecisionTree) restore(nodes []TreeNode, featureNames []string, params ForestParams) error {
	if err := validateNodes(nodes, len(featureNames)); err != nil {
		return err
	}
	dt.nodes = nodes
	dt.features = append([]string(nil), featureNames...)
	dt.numFeatures = len(featureNames)
	dt.MaxDepth = params.MaxDepth
	dt.MinSamplesSplit = params.MinSamplesSplit
	dt.MaxFeatures = params.MaxFeatures
	return nil
}

func (dt *DecisionTree) leafDistribution(features []float64) ([]float64, error) {
	if len(dt.nodes) == 0 {
		return nil, ErrNotTrained
	}
	if len(features) != dt.numFeatures {
		return nil, fmt.Errorf("%w: got %d features, expected %d", ErrSchemaMismatch, len(features), dt.numFeatures)
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.Distribution, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(dt.nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
}

// buildNode appends the subtree for the given rows and returns its root index.
// Child indices are absolute positions in dt.nodes.
func (dt *DecisionTree) buildNode(features [][]float64, labels []int, depth int) int {
	dist := classDistribution(labels)
	idx := len(dt.nodes)
	dt.nodes = append(dt.nodes, TreeNode{
		FeatureIdx:   -1,
		LeftChild:    -1,
		RightChild:   -1,
		ClassLabel:   argmax(dist),
		IsLeaf:       true,
		Distribution: dist,
	})

	if (dt.MaxDepth > 0 && depth >= dt.MaxDepth) || len(labels) < dt.MinSamplesSplit || isPure(labels) {
		return idx
	}

	bestFeature, threshold, ok := dt.findBestSplit(features, labels)
	if !ok {
		return idx
	}

	leftFeatures, leftLabels, rightFeatures, rightLabels := splitData(features, labels, bestFeature, threshold)
	if len(leftLabels) == 0 || len(rightLabels) == 0 {
		return idx
	}

	left := dt.buildNode(leftFeatures, leftLabels, depth+1)
	right := dt.buildNode(rightFeatures, rightLabels, depth+1)

	node := &dt.nodes[idx]
	node.IsLeaf = false
	node.FeatureIdx = bestFeature
	node.Threshold = threshold
	node.LeftChild = left
	node.RightChild = right
	node.Distribution = nil
	return idx
}

// findBestSplit scans columns in random order and keeps the lowest weighted
// Gini split. It stops once MaxFeatures columns were examined and at least one
// valid split exists.
func (dt *DecisionTree) findBestSplit(features [][]float64, labels []int) (int, float64, bool) {
	featureCount := len(features[0])
	order := make([]int, featureCount)
	for i := range order {
		order[i] = i
	}
	if dt.rng != nil {
		order = dt.rng.Perm(featureCount)
	}
	limit := dt.MaxFeatures
	if limit <= 0 || limit > featureCount {
		limit = featureCount
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64

	for visited, featureIdx := range order {
		if visited >= limit && bestFeature != -1 {
			break
		}
		threshold, impurity, ok := bestThresholdFor(features, labels, featureIdx)
		if !ok {
			continue
		}
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestFeature = featureIdx
			bestThreshold = threshold
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

// bestThresholdFor sweeps the sorted column once, evaluating a split at the
// midpoint between every pair of distinct adjacent values.
func bestThresholdFor(features [][]float64, labels []int, featureIdx int) (float64, float64, bool) {
	n := len(features)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return features[order[a]][featureIdx] < features[order[b]][featureIdx]
	})

	var total [numClasses]int
	for _, label := range labels {
		total[label]++
	}

	var left [numClasses]int
	bestImpurity := math.MaxFloat64
	bestThreshold := 0.0
	found := false
	for i := 0; i < n-1; i++ {
		left[labels[order[i]]]++
		current := features[order[i]][featureIdx]
		next := features[order[i+1]][featureIdx]
		if current == next {
			continue
		}
		leftN := i + 1
		rightN := n - leftN
		var right [numClasses]int
		for c := range right {
			right[c] = total[c] - left[c]
		}
		impurity := (float64(leftN)*giniCounts(left[:], leftN) + float64(rightN)*giniCounts(right[:], rightN)) / float64(n)
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestThreshold = current + (next-current)/2
			found = true
		}
	}
	return bestThreshold, bestImpurity, found
}

func splitData(features [][]float64, labels []int, featureIdx int, threshold float64) ([][]float64, []int, [][]float64, []int) {
	leftFeatures := make([][]float64, 0)
	leftLabels := make([]int, 0)
	rightFeatures := make([][]float64, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftFeatures, leftLabels, rightFeatures, rightLabels
}

func giniCounts(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(total)
		impurity -= prob * prob
	}
	return impurity
}

func classDistribution(labels []int) []float64 {
	dist := make([]float64, numClasses)
	if len(labels) == 0 {
		return dist
	}
	for _, label := range labels {
		dist[label]++
	}
	for i := range dist {
		dist[i] /= float64(len(labels))
	}
	return dist
}

// argmax returns the first index holding the maximum, so ties go to class 0.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

func isPure(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, label := range labels[1:] {
		if label != first {
			return false
		}
	}
	return true
}

func validateNodes(nodes []TreeNode, numFeatures int) error {
	if len(nodes) == 0 {
		return ErrNotTrained
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if len(node.Distribution) != numClasses {
				return fmt.Errorf("node %d: leaf distribution has %d classes", i, len(node.Distribution))
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= numFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) || node.RightChild <= i || node.RightChild >= len(nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

func positionalNames(width int) []string {
	names := make([]string, width)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
	}
	return names
}

func classes() []int {
	out := make([]int, numClasses)
	for i := range out {
		out[i] = i
	}
	return out
}
