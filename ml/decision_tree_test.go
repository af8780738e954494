package ml

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestDecisionTreeTrainPredict(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	labels := []int{0, 0, 1, 1}

	model := NewDecisionTree(2, []string{"x", "y"})
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, confidence, err := model.Predict([]float64{0.15, 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
	if confidence != 1 {
		t.Fatalf("expected pure leaf confidence 1, got %f", confidence)
	}
	label, _, err = model.Predict([]float64{0.85, 0.85})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestDecisionTreeNestedSplits(t *testing.T) {
	// label is 1 only inside the band 3 < x <= 6, which needs two levels.
	var features [][]float64
	var labels []int
	for x := 1; x <= 9; x++ {
		features = append(features, []float64{float64(x)})
		if x > 3 && x <= 6 {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
	}

	model := NewDecisionTree(0, nil)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, row := range features {
		label, _, err := model.Predict(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if label != labels[i] {
			t.Errorf("x=%v: expected %d, got %d", row[0], labels[i], label)
		}
	}
}

func TestDecisionTreeMaxDepthLimitsGrowth(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}}
	labels := []int{0, 1, 0, 1}

	model := NewDecisionTree(1, nil)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(model.nodes) > 3 {
		t.Fatalf("depth-1 tree has %d nodes", len(model.nodes))
	}
	proba, err := model.PredictProba([]float64{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(proba[0]+proba[1]-1) > 1e-9 {
		t.Fatalf("probabilities do not sum to 1: %v", proba)
	}
}

func TestDecisionTreeErrors(t *testing.T) {
	model := NewDecisionTree(3, nil)
	if _, _, err := model.Predict([]float64{1}); !errors.Is(err, ErrNotTrained) {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}
	if err := model.Train([][]float64{{1}}, []int{0, 1}); err == nil {
		t.Fatal("expected size mismatch error")
	}
	if err := model.Train([][]float64{{1}, {2}}, []int{0, 2}); err == nil {
		t.Fatal("expected error for non-binary label")
	}
	if err := model.Train([][]float64{{1}, {2}}, []int{0, 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := model.Predict([]float64{1, 2}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	features := [][]float64{{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}}
	labels := []int{0, 0, 1, 1, 1}
	model := NewDecisionTree(0, []string{"a", "b"})
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tree.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadModel(TypeDecisionTree, path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	for _, row := range features {
		want, _, _ := model.Predict(row)
		got, _, err := loaded.Predict(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("row %v: expected %d after reload, got %d", row, want, got)
		}
	}

	if _, err := LoadModel(TypeRandomForest, path); err == nil {
		t.Fatal("expected type mismatch when loading a tree as a forest")
	}
}
