package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	TypeDecisionTree = "decision_tree"
	TypeRandomForest = "random_forest"
)

// Artifact is the on-disk form of a fitted model.
type Artifact struct {
	Type         string       `json:"type"`
	FeatureNames []string     `json:"feature_names"`
	Classes      []int        `json:"classes"`
	TrainedAt    time.Time    `json:"trained_at"`
	Params       ForestParams `json:"params"`
	Trees        [][]TreeNode `json:"trees"`
}

func LoadModel(modelType, path string) (MLModel, error) {
	var model MLModel
	switch modelType {
	case TypeDecisionTree:
		model = &DecisionTree{}
	case TypeRandomForest, "":
		model = &RandomForest{}
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
	if err := model.Load(path); err != nil {
		return nil, err
	}
	return model, nil
}

// writeArtifact overwrites path in place.
func writeArtifact(path string, artifact *Artifact) error {
	if artifact.TrainedAt.IsZero() {
		artifact.TrainedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func readArtifact(path, wantType string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if artifact.Type != wantType {
		return nil, fmt.Errorf("%s holds a %q model, expected %q", path, artifact.Type, wantType)
	}
	if len(artifact.Classes) != numClasses {
		return nil, fmt.Errorf("%s: expected %d classes, got %d", path, numClasses, len(artifact.Classes))
	}
	if len(artifact.FeatureNames) == 0 {
		return nil, errors.New("artifact missing feature names")
	}
	return &artifact, nil
}
