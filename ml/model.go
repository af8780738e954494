package ml

import "errors"

var (
	ErrNotTrained     = errors.New("model not trained")
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)

// numClasses is fixed: every model here is a binary classifier.
const numClasses = 2

// Classifier is the inference side of a fitted model.
type Classifier interface {
	Predict(features []float64) (int, float64, error)
	PredictProba(features []float64) ([]float64, error)
	FeatureNames() []string
}

type MLModel interface {
	Classifier
	Train(features [][]float64, labels []int) error
	Save(path string) error
	Load(path string) error
}
