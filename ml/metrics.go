package ml

import (
	"errors"
	"fmt"
)

// Metrics summarise a classifier on a held-out split. Class 1 is positive.
type Metrics struct {
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	Confusion [2][2]int `json:"confusion"`
	Samples   int       `json:"samples"`
}

func Evaluate(model Classifier, testX [][]float64, testY []int) (Metrics, error) {
	if len(testX) != len(testY) {
		return Metrics{}, errors.New("features and labels size mismatch")
	}
	if len(testX) == 0 {
		return Metrics{}, errors.New("empty evaluation set")
	}

	var m Metrics
	correct := 0
	for i, feature := range testX {
		if testY[i] < 0 || testY[i] >= numClasses {
			return Metrics{}, fmt.Errorf("row %d: label %d outside [0,%d)", i, testY[i], numClasses)
		}
		label, _, err := model.Predict(feature)
		if err != nil {
			return Metrics{}, err
		}
		if label < 0 || label >= numClasses {
			return Metrics{}, fmt.Errorf("row %d: model predicted label %d", i, label)
		}
		m.Confusion[testY[i]][label]++
		if label == testY[i] {
			correct++
		}
	}

	m.Samples = len(testX)
	m.Accuracy = float64(correct) / float64(len(testX))
	truePositive := m.Confusion[1][1]
	if predicted := m.Confusion[0][1] + truePositive; predicted > 0 {
		m.Precision = float64(truePositive) / float64(predicted)
	}
	if actual := m.Confusion[1][0] + truePositive; actual > 0 {
		m.Recall = float64(truePositive) / float64(actual)
	}
	return m, nil
}
