package ml

import "testing"

func TestTrainTestSplit(t *testing.T) {
	features := make([][]float64, 101)
	labels := make([]int, 101)
	for i := range features {
		features[i] = []float64{float64(i)}
		labels[i] = i % 2
	}

	trainX, trainY, testX, testY := TrainTestSplit(features, labels, 0.2, 42)
	if len(testX) != 21 || len(testY) != 21 {
		t.Fatalf("expected 21 test rows, got %d", len(testX))
	}
	if len(trainX) != 80 || len(trainY) != 80 {
		t.Fatalf("expected 80 train rows, got %d", len(trainX))
	}

	seen := make(map[float64]bool)
	for _, row := range append(append([][]float64{}, trainX...), testX...) {
		if seen[row[0]] {
			t.Fatalf("row %v appears twice", row)
		}
		seen[row[0]] = true
	}
	for i, row := range trainX {
		if labels[int(row[0])] != trainY[i] {
			t.Fatalf("label detached from row %v", row)
		}
	}

	againX, _, againTestX, _ := TrainTestSplit(features, labels, 0.2, 42)
	for i := range testX {
		if testX[i][0] != againTestX[i][0] {
			t.Fatalf("split not reproducible at %d", i)
		}
	}
	if againX[0][0] != trainX[0][0] {
		t.Fatal("train split not reproducible")
	}

	_, _, otherTest, _ := TrainTestSplit(features, labels, 0.2, 7)
	same := true
	for i := range testX {
		if testX[i][0] != otherTest[i][0] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds gave identical splits")
	}
}

func TestTrainTestSplitInvalidRatio(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}, {5}}
	labels := []int{0, 1, 0, 1, 0}
	trainX, _, testX, _ := TrainTestSplit(features, labels, 1.5, 1)
	if len(testX) != 1 || len(trainX) != 4 {
		t.Fatalf("expected fallback 0.2 ratio, got train=%d test=%d", len(trainX), len(testX))
	}
}

type constantModel struct{ label int }

func (c constantModel) Predict([]float64) (int, float64, error) { return c.label, 1, nil }
func (c constantModel) PredictProba([]float64) ([]float64, error) {
	proba := make([]float64, 2)
	proba[c.label] = 1
	return proba, nil
}
func (c constantModel) FeatureNames() []string { return []string{"x"} }

func TestEvaluate(t *testing.T) {
	testX := [][]float64{{1}, {2}, {3}, {4}}
	testY := []int{1, 1, 0, 1}

	m, err := Evaluate(constantModel{label: 1}, testX, testY)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Accuracy != 0.75 || m.Precision != 0.75 || m.Recall != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if m.Confusion[0][1] != 1 || m.Confusion[1][1] != 3 {
		t.Fatalf("unexpected confusion %+v", m.Confusion)
	}

	if _, err := Evaluate(constantModel{}, nil, nil); err == nil {
		t.Fatal("expected error for empty set")
	}
}
