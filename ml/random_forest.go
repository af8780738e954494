package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ForestParams are the fixed hyper-parameters of an ensemble.
type ForestParams struct {
	NumTrees        int   `json:"num_trees" yaml:"num_trees"`
	MaxDepth        int   `json:"max_depth" yaml:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split" yaml:"min_samples_split"`
	MaxFeatures     int   `json:"max_features" yaml:"max_features"`
	Seed            int64 `json:"seed" yaml:"seed"`
}

func DefaultForestParams() ForestParams {
	return ForestParams{
		NumTrees:        100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

// RandomForest averages the class distributions of bootstrap-trained trees.
type RandomForest struct {
	Params ForestParams

	features  []string
	trees     []*DecisionTree
	trainedAt time.Time
}

func NewRandomForest(params ForestParams, featureNames []string) *RandomForest {
	if params.NumTrees <= 0 {
		params.NumTrees = DefaultForestParams().NumTrees
	}
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}
	return &RandomForest{
		Params:   params,
		features: append([]string(nil), featureNames...),
	}
}

// Train fits every tree on its own bootstrap sample. All randomness derives
// from Params.Seed, so equal inputs give equal forests.
func (rf *RandomForest) Train(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	width := len(features[0])
	if len(rf.features) == 0 {
		rf.features = positionalNames(width)
	}
	if len(rf.features) != width {
		return fmt.Errorf("%w: %d names for %d columns", ErrSchemaMismatch, len(rf.features), width)
	}
	maxFeatures := rf.Params.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(width)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	rng := rand.New(rand.NewSource(rf.Params.Seed))
	n := len(features)
	trees := make([]*DecisionTree, 0, rf.Params.NumTrees)
	for t := 0; t < rf.Params.NumTrees; t++ {
		treeRng := rand.New(rand.NewSource(rng.Int63()))
		sampleX := make([][]float64, n)
		sampleY := make([]int, n)
		for i := 0; i < n; i++ {
			idx := treeRng.Intn(n)
			sampleX[i] = features[idx]
			sampleY[i] = labels[idx]
		}

		tree := &DecisionTree{
			MaxDepth:        rf.Params.MaxDepth,
			MinSamplesSplit: rf.Params.MinSamplesSplit,
			MaxFeatures:     maxFeatures,
			features:        rf.features,
		}
		if err := tree.fit(sampleX, sampleY, treeRng); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
		trees = append(trees, tree)
	}

	rf.Params.MaxFeatures = maxFeatures
	rf.trees = trees
	rf.trainedAt = time.Now().UTC()
	return nil
}

func (rf *RandomForest) PredictProba(features []float64) ([]float64, error) {
	if len(rf.trees) == 0 {
		return nil, ErrNotTrained
	}
	proba := make([]float64, numClasses)
	for _, tree := range rf.trees {
		dist, err := tree.leafDistribution(features)
		if err != nil {
			return nil, err
		}
		for c, p := range dist {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(rf.trees))
	}
	return proba, nil
}

func (rf *RandomForest) Predict(features []float64) (int, float64, error) {
	proba, err := rf.PredictProba(features)
	if err != nil {
		return 0, 0, err
	}
	label := argmax(proba)
	return label, proba[label], nil
}

func (rf *RandomForest) FeatureNames() []string {
	return append([]string(nil), rf.features...)
}

func (rf *RandomForest) NumTrees() int {
	return len(rf.trees)
}

func (rf *RandomForest) TrainedAt() time.Time {
	return rf.trainedAt
}

// Save writes the forest to path, replacing any previous file.
func (rf *RandomForest) Save(path string) error {
	if len(rf.trees) == 0 {
		return ErrNotTrained
	}
	trees := make([][]TreeNode, len(rf.trees))
	for i, tree := range rf.trees {
		trees[i] = tree.nodes
	}
	return writeArtifact(path, &Artifact{
		Type:         TypeRandomForest,
		FeatureNames: rf.features,
		Classes:      classes(),
		TrainedAt:    rf.trainedAt,
		Params:       rf.Params,
		Trees:        trees,
	})
}

func (rf *RandomForest) Load(path string) error {
	artifact, err := readArtifact(path, TypeRandomForest)
	if err != nil {
		return err
	}
	if len(artifact.Trees) == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotTrained)
	}
	trees := make([]*DecisionTree, len(artifact.Trees))
	for i, nodes := range artifact.Trees {
		tree := &DecisionTree{}
		if err := tree.restore(nodes, artifact.FeatureNames, artifact.Params); err != nil {
			return fmt.Errorf("%s: tree %d: %w", path, i, err)
		}
		trees[i] = tree
	}
	rf.Params = artifact.Params
	rf.features = append([]string(nil), artifact.FeatureNames...)
	rf.trees = trees
	rf.trainedAt = artifact.TrainedAt
	return nil
}
